package report

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

const (
	ContentTypePNG = "image/png"
	qrSize         = 256
)

// QRCode encodes an employee ID as a PNG suitable for the kiosk scanner.
func QRCode(employeeID string) ([]byte, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, errors.New("qrcode: empty employee id")
	}

	png, err := qrcode.Encode(employeeID, qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qrcode")
	}
	return png, nil
}
