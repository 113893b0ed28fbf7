package api_test

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/luma/respd/api"
	"github.com/luma/respd/internal/metrics"
)

var _ = Describe("api", func() {
	var (
		router *gin.Engine
		reg    *prometheus.Registry
	)

	BeforeEach(func() {
		reg = prometheus.NewRegistry()
		router = api.NewRouter(api.Options{
			Gatherer: reg,
			Log:      zap.NewNop(),
		})
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		router.ServeHTTP(w, req)
		return w
	}

	It("answers /ping", func() {
		w := do(http.MethodGet, "/ping", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(Equal("pong"))
	})

	It("falls back to a no-op logger", func() {
		router = api.NewRouter(api.Options{Gatherer: reg})

		w := do(http.MethodGet, "/ping", "")
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("answers /healthz", func() {
		w := do(http.MethodGet, "/healthz", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(gjson.Get(w.Body.String(), "status").String()).To(Equal("ok"))
		Expect(gjson.Get(w.Body.String(), "version").Exists()).To(BeTrue())
	})

	It("serves metrics from the gatherer", func() {
		m := metrics.New(reg)
		m.RecordFrame("simple_string")

		w := do(http.MethodGet, "/metrics", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`respd_protocol_frames_total{type="simple_string"} 1`))
	})

	Describe("POST /decode", func() {
		It("describes every decoded value", func() {
			w := do(http.MethodPost, "/decode", "+OK\r\n$2\r\nhi\r\n$-1\r\n")
			Expect(w.Code).To(Equal(http.StatusOK))

			body := w.Body.String()
			Expect(gjson.Get(body, "values.#").Int()).To(Equal(int64(3)))
			Expect(gjson.Get(body, "values.0.type").String()).To(Equal("simple_string"))
			Expect(gjson.Get(body, "values.0.value").String()).To(Equal("OK"))
			Expect(gjson.Get(body, "values.1.type").String()).To(Equal("bulk_string"))
			Expect(gjson.Get(body, "values.1.value").String()).To(Equal("hi"))
			Expect(gjson.Get(body, "values.2.type").String()).To(Equal("null"))
			Expect(gjson.Get(body, "values.2.value").Type).To(Equal(gjson.Null))
			Expect(gjson.Get(body, "cursor").Int()).To(Equal(int64(18)))
			Expect(gjson.Get(body, "error").Exists()).To(BeFalse())
		})

		It("reports where decoding stopped", func() {
			w := do(http.MethodPost, "/decode", "+OK\r\n$7\r\nOK\r\n")
			Expect(w.Code).To(Equal(http.StatusOK))

			body := w.Body.String()
			Expect(gjson.Get(body, "values.#").Int()).To(Equal(int64(1)))
			Expect(gjson.Get(body, "cursor").Int()).To(Equal(int64(5)))
			Expect(gjson.Get(body, "error.kind").String()).To(Equal("out_of_bounds"))
			Expect(gjson.Get(body, "error.offset").Int()).To(Equal(int64(9 + 7)))
		})

		It("reports bad lengths", func() {
			w := do(http.MethodPost, "/decode", "$-7\r\n")

			body := w.Body.String()
			Expect(gjson.Get(body, "values.#").Int()).To(Equal(int64(0)))
			Expect(gjson.Get(body, "error.kind").String()).To(Equal("length_out_of_range"))
			Expect(gjson.Get(body, "error.length").Int()).To(Equal(int64(-7)))
		})

		It("reports unknown sigils", func() {
			w := do(http.MethodPost, "/decode", "?OK\r\n")

			body := w.Body.String()
			Expect(gjson.Get(body, "cursor").Int()).To(Equal(int64(0)))
			Expect(gjson.Get(body, "error.kind").String()).To(Equal("unknown"))
			Expect(gjson.Get(body, "error.message").String()).To(Equal("unknown value type"))
		})

		It("handles an empty body", func() {
			w := do(http.MethodPost, "/decode", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"values":[],"cursor":0}`))
		})

		It("rejects oversized bodies", func() {
			w := do(http.MethodPost, "/decode", strings.Repeat("+", api.MaxDecodeBodySize+1))
			Expect(w.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})
	})

	Describe("DecodeReport()", func() {
		It("caps huge out of bounds offsets", func() {
			report, err := api.DecodeReport([]byte("$9223372036854775807\r\n"))
			Expect(err).To(Succeed())
			Expect(gjson.GetBytes(report, "error.offset").Int()).To(Equal(int64(math.MaxInt)))
		})
	})
})
