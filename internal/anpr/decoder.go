// Package anpr decodes the EventNotificationAlert XML that ANPR cameras post
// alongside the plate image.
package anpr

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	pkgerrors "plategate/pkg/errors"
	"plategate/pkg/models"
)

// Every element is decoded into a slice so that a missing element (len 0)
// and a repeated one (len > 1) can both be rejected.
type alertXML struct {
	XMLName   xml.Name  `xml:"EventNotificationAlert"`
	IPAddress []string  `xml:"ipAddress"`
	DateTime  []string  `xml:"dateTime"`
	EventType []string  `xml:"eventType"`
	ANPR      []anprXML `xml:"ANPR"`
}

type anprXML struct {
	LicensePlate []string         `xml:"licensePlate"`
	VehicleInfo  []vehicleInfoXML `xml:"vehicleInfo"`
}

type vehicleInfoXML struct {
	VehicleType []string `xml:"vehicleType"`
	Color       []string `xml:"color"`
	Speed       []string `xml:"speed"`
}

// Decode parses an EventNotificationAlert document into a StructuredEvent.
// Malformed XML, text or elements outside the root, a different root element,
// or any required element that is missing or repeated yields an error
// matching pkgerrors.ErrDecode. Namespaces are ignored and values are
// whitespace-trimmed.
func Decode(text string) (models.StructuredEvent, error) {
	var doc alertXML
	if err := decodeDocument(text, &doc); err != nil {
		return models.StructuredEvent{}, err
	}

	d := &decodeState{}

	event := models.StructuredEvent{
		IPAddress: d.single("EventNotificationAlert/ipAddress", doc.IPAddress),
		DateTime:  d.single("EventNotificationAlert/dateTime", doc.DateTime),
		EventType: d.single("EventNotificationAlert/eventType", doc.EventType),
	}

	if anpr, ok := one(d, "EventNotificationAlert/ANPR", doc.ANPR); ok {
		event.LicensePlate = d.single("ANPR/licensePlate", anpr.LicensePlate)
		if info, ok := one(d, "ANPR/vehicleInfo", anpr.VehicleInfo); ok {
			event.VehicleType = d.single("vehicleInfo/vehicleType", info.VehicleType)
			event.VehicleColor = d.single("vehicleInfo/color", info.Color)
			event.VehicleSpeed = d.single("vehicleInfo/speed", info.Speed)
		}
	}

	if d.err != nil {
		return models.StructuredEvent{}, d.err
	}
	return event, nil
}

// decodeDocument decodes the single root element of text into v and reads
// the rest of the input to EOF. Only whitespace, comments, processing
// instructions and directives may surround the root.
func decodeDocument(text string, v any) error {
	dec := xml.NewDecoder(strings.NewReader(text))

	var root *xml.StartElement
	for root == nil {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return pkgerrors.ErrDecode.WithMessage("no root element")
		}
		if err != nil {
			return pkgerrors.ErrDecode.WithCause(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			root = &t
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return pkgerrors.ErrDecode.WithMessage("text before root element")
			}
		}
	}

	if err := dec.DecodeElement(v, root); err != nil {
		return pkgerrors.ErrDecode.WithCause(err)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return pkgerrors.ErrDecode.WithCause(err)
		}
		switch t := tok.(type) {
		case xml.StartElement, xml.EndElement:
			return pkgerrors.ErrDecode.WithMessage("trailing content after root element")
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return pkgerrors.ErrDecode.WithMessage("trailing content after root element")
			}
		}
	}
}

// decodeState keeps the first schema violation found.
type decodeState struct {
	err error
}

func (d *decodeState) fail(path string, count int) {
	if d.err != nil {
		return
	}
	reason := "missing"
	if count > 1 {
		reason = fmt.Sprintf("expected one element, found %d", count)
	}
	d.err = pkgerrors.ErrDecode.
		WithMessage(fmt.Sprintf("%s: %s", path, reason)).
		WithDetail("element", path)
}

func (d *decodeState) single(path string, values []string) string {
	v, ok := one(d, path, values)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func one[T any](d *decodeState, path string, values []T) (T, bool) {
	var zero T
	if len(values) != 1 {
		d.fail(path, len(values))
		return zero, false
	}
	return values[0], true
}
