package protocol_test

import (
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/luma/respd/protocol"
)

func expectOutOfBounds(err error, offset int) {
	ExpectWithOffset(1, errors.Is(err, protocol.ErrOutOfBounds)).To(BeTrue())

	var oob *protocol.OutOfBoundsError
	ExpectWithOffset(1, errors.As(err, &oob)).To(BeTrue())
	ExpectWithOffset(1, oob.Offset).To(Equal(offset))
}

var _ = Describe("Lines", func() {
	Describe("ExtractLine()", func() {
		DescribeTable("returns OutOfBounds when there is no terminator",
			func(input string, start, want int) {
				pos := start
				_, err := protocol.ExtractLine([]byte(input), &pos)
				expectOutOfBounds(err, want)
				Expect(pos).To(Equal(want))
			},
			Entry("empty buffer", "", 0, 0),
			Entry("single character", "O", 0, 1),
			Entry("cursor too advanced", "OK", 1, 2),
			Entry("cursor past the end", "OK", 5, 5),
			Entry("no separator", "OK", 0, 2),
			Entry("half separator", "OK\r", 0, 3),
			Entry("incorrect separator", "OK\n", 0, 3),
			Entry("reversed separator", "OK\n\r", 0, 4),
		)

		It("leaves the cursor alone when it is already past the end", func() {
			pos := 7
			_, err := protocol.ExtractLine([]byte("OK\r\n"), &pos)
			expectOutOfBounds(err, 7)
			Expect(pos).To(Equal(7))
		})

		It("extracts the bytes before the terminator", func() {
			pos := 0
			line, err := protocol.ExtractLine([]byte("OK\r\n"), &pos)
			Expect(err).To(Succeed())
			Expect(line).To(Equal([]byte("OK")))
			Expect(pos).To(Equal(4))
		})

		It("extracts an empty line", func() {
			pos := 0
			line, err := protocol.ExtractLine([]byte("\r\n"), &pos)
			Expect(err).To(Succeed())
			Expect(line).To(BeEmpty())
			Expect(pos).To(Equal(2))
		})

		It("starts scanning at the cursor", func() {
			buf := []byte("+OK\r\nnext\r\n")
			pos := 5
			line, err := protocol.ExtractLine(buf, &pos)
			Expect(err).To(Succeed())
			Expect(string(line)).To(Equal("next"))
			Expect(pos).To(Equal(len(buf)))
		})

		It("stops at the first terminator and keeps stray CR or LF bytes", func() {
			buf := []byte("a\rb\nc\r\nrest\r\n")
			pos := 0
			line, err := protocol.ExtractLine(buf, &pos)
			Expect(err).To(Succeed())
			Expect(string(line)).To(Equal("a\rb\nc"))
			Expect(pos).To(Equal(7))
		})

		It("advances by k+2 for a terminator at offset k", func() {
			for k := 0; k < 16; k++ {
				payload := make([]byte, k)
				for i := range payload {
					payload[i] = 'x'
				}

				buf := append([]byte("junk"), payload...)
				buf = append(buf, "\r\ntail"...)

				pos := 4
				line, err := protocol.ExtractLine(buf, &pos)
				Expect(err).To(Succeed())
				Expect(line).To(HaveLen(k))
				Expect(pos).To(Equal(4 + k + 2))
			}
		})

		It("does not alias the source buffer", func() {
			buf := []byte("OK\r\n")
			pos := 0
			line, err := protocol.ExtractLine(buf, &pos)
			Expect(err).To(Succeed())

			buf[0] = 'N'
			Expect(string(line)).To(Equal("OK"))
		})
	})

	Describe("ExtractLineString()", func() {
		It("returns the line as a string", func() {
			pos := 0
			s, err := protocol.ExtractLineString([]byte("OK\r\n"), &pos)
			Expect(err).To(Succeed())
			Expect(s).To(Equal("OK"))
			Expect(pos).To(Equal(4))
		})

		It("rejects invalid UTF-8 after moving past the line", func() {
			pos := 0
			_, err := protocol.ExtractLineString([]byte("\xff\xfe\r\n"), &pos)
			Expect(err).To(MatchError(protocol.ErrInvalidEncoding))
			Expect(pos).To(Equal(4))
		})
	})
})
