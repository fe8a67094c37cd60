package scan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mconcas/pantrybot-backend/internal/inventory"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
)

// Mode selects whether a batch adds stock or consumes it.
type Mode string

const (
	ModeAdd    Mode = "add"
	ModeRemove Mode = "remove"
)

// Scan is one captured barcode.
type Scan struct {
	Code   string `json:"code"`
	Format string `json:"format"`
}

// Batch is a parsed scanner payload: one or more barcodes plus the mode
// they should be applied in.
type Batch struct {
	Mode  Mode
	Scans []Scan
}

type wirePayload struct {
	Code   string `json:"code"`
	Format string `json:"format"`
	Mode   string `json:"mode"`
	Scans  []Scan `json:"scans"`
}

// ParsePayload decodes the scanner wire format. It accepts either a single
// scan object or a batch envelope; mode defaults to add. Scans with empty
// codes are dropped, and a payload with no usable barcode is rejected.
// Barcodes containing the reserved delimiter are rejected outright: they
// would later be embedded in callback tokens, where the delimiter is the
// field separator.
func ParsePayload(data []byte) (Batch, error) {
	var payload wirePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Batch{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scanner payload")
	}

	mode := ModeAdd
	switch strings.TrimSpace(payload.Mode) {
	case "", string(ModeAdd):
	case string(ModeRemove):
		mode = ModeRemove
	default:
		return Batch{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown scan mode")
	}

	scans := payload.Scans
	if len(scans) == 0 && payload.Code != "" {
		scans = []Scan{{Code: payload.Code, Format: payload.Format}}
	}

	usable := make([]Scan, 0, len(scans))
	for _, s := range scans {
		code := strings.TrimSpace(s.Code)
		if code == "" {
			continue
		}
		if strings.Contains(code, inventory.ReservedDelimiter) {
			return Batch{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("barcode %q contains the reserved character %q", code, inventory.ReservedDelimiter))
		}
		usable = append(usable, Scan{Code: code, Format: s.Format})
	}
	if len(usable) == 0 {
		return Batch{}, pkgerrors.New(pkgerrors.CodeValidation, "no barcodes received")
	}

	return Batch{Mode: mode, Scans: usable}, nil
}
