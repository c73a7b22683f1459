package signing

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec is returned by Spec.Validate.
var ErrInvalidSpec = errors.New("invalid signature spec")

// Kind selects whether the signature has a visual appearance on the page.
type Kind string

const (
	KindInvisible Kind = "invisible"
	KindVisible   Kind = "visible"
)

// Mode is what a visible signature renders inside its rectangle.
type Mode string

const (
	ModeSignatureOnly           Mode = "signatureOnly"
	ModeDescriptionOnly         Mode = "descriptionOnly"
	ModeSignatureAndDescription Mode = "signatureAndDescription"
)

// Rect is a box in PDF points measured from the top-left corner of the page.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Appearance styles a visible signature. Image, when set, must be PNG bytes.
type Appearance struct {
	Mode             Mode
	ShowWatermark    bool
	ShowSignDate     bool
	ShowDateTimezone bool
	Image            []byte
}

// DefaultAppearance matches the signing service defaults: signature only, watermark and
// date shown, no time zone.
func DefaultAppearance() Appearance {
	return Appearance{Mode: ModeSignatureOnly, ShowWatermark: true, ShowSignDate: true}
}

// Spec describes where and how to place a signature.
type Spec struct {
	Kind       Kind
	PageIndex  int
	Rect       Rect
	Appearance Appearance
	// Flatten burns the appearance into the page content. Visible signatures only.
	Flatten bool
}

// Validate checks the spec before anything is sent to the signing service.
func (s Spec) Validate() error {
	if s.PageIndex < 0 {
		return fmt.Errorf("%w: page index must not be negative", ErrInvalidSpec)
	}
	switch s.Kind {
	case KindInvisible:
		return nil
	case KindVisible:
	default:
		return fmt.Errorf("%w: unknown signature type %q", ErrInvalidSpec, s.Kind)
	}

	if s.Rect.Width <= 0 || s.Rect.Height <= 0 {
		return fmt.Errorf("%w: visible signature needs a positive width and height", ErrInvalidSpec)
	}
	if s.Rect.X < 0 || s.Rect.Y < 0 {
		return fmt.Errorf("%w: signature position must not be negative", ErrInvalidSpec)
	}
	switch s.Appearance.Mode {
	case "", ModeSignatureOnly, ModeDescriptionOnly, ModeSignatureAndDescription:
	default:
		return fmt.Errorf("%w: unknown appearance mode %q", ErrInvalidSpec, s.Appearance.Mode)
	}
	return nil
}

type signatureMetadata struct {
	SignerName      string `json:"signerName,omitempty"`
	SignatureReason string `json:"signatureReason,omitempty"`
}

type position struct {
	PageIndex int       `json:"pageIndex"`
	Rect      []float64 `json:"rect,omitempty"`
}

type appearanceData struct {
	Mode             Mode   `json:"mode"`
	ShowWatermark    bool   `json:"showWatermark"`
	ShowSignDate     bool   `json:"showSignDate"`
	ShowDateTimezone bool   `json:"showDateTimezone"`
	ContentType      string `json:"contentType,omitempty"`
}

// signatureData is the JSON sent in the "data" form part.
type signatureData struct {
	SignatureType     string             `json:"signatureType"`
	CadesLevel        string             `json:"cadesLevel"`
	SignatureMetadata *signatureMetadata `json:"signatureMetadata,omitempty"`
	Position          position           `json:"position"`
	Appearance        *appearanceData    `json:"appearance,omitempty"`
	Flatten           *bool              `json:"flatten,omitempty"`
}

func buildData(signerName, reason string, s Spec) signatureData {
	d := signatureData{
		SignatureType: "cades",
		CadesLevel:    "b-lt",
		Position:      position{PageIndex: s.PageIndex},
	}
	if signerName != "" || reason != "" {
		d.SignatureMetadata = &signatureMetadata{SignerName: signerName, SignatureReason: reason}
	}
	if s.Kind != KindVisible {
		return d
	}

	d.Position.Rect = []float64{s.Rect.X, s.Rect.Y, s.Rect.Width, s.Rect.Height}
	mode := s.Appearance.Mode
	if mode == "" {
		mode = ModeSignatureOnly
	}
	a := &appearanceData{
		Mode:             mode,
		ShowWatermark:    s.Appearance.ShowWatermark,
		ShowSignDate:     s.Appearance.ShowSignDate,
		ShowDateTimezone: s.Appearance.ShowDateTimezone,
	}
	if len(s.Appearance.Image) > 0 {
		a.ContentType = "image/png"
	}
	d.Appearance = a
	flatten := s.Flatten
	d.Flatten = &flatten
	return d
}
