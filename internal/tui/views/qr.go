package views

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ChatLink returns the click-to-chat link for a phone address, or empty
// when the address has no digits.
func ChatLink(address string) string {
	var digits strings.Builder
	for _, r := range address {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return "https://wa.me/" + digits.String()
}

// RenderQR draws content as a QR code using Unicode half blocks, two
// modules per character row. Each line is prefixed with indent.
func RenderQR(content, indent string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", err
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString(indent)
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bot := y+1 < rows && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String(), nil
}
