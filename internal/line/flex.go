// internal/line/flex.go

// Package line builds and pushes LINE flex messages for proximity alerts.
package line

import (
	"net/url"
	"strconv"

	"ElephantWatchAPI/internal/models"
)

// Component is any node allowed inside a flex box.
type Component interface {
	flexComponent()
}

type FlexMessage struct {
	Type     string `json:"type"`
	AltText  string `json:"altText"`
	Contents Bubble `json:"contents"`
}

type Bubble struct {
	Type   string `json:"type"`
	Header *Box   `json:"header,omitempty"`
	Body   *Box   `json:"body,omitempty"`
	Footer *Box   `json:"footer,omitempty"`
}

type Box struct {
	Type            string      `json:"type"`
	Layout          string      `json:"layout"`
	Contents        []Component `json:"contents"`
	Spacing         string      `json:"spacing,omitempty"`
	Margin          string      `json:"margin,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
}

type Text struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Weight string `json:"weight,omitempty"`
	Color  string `json:"color,omitempty"`
	Size   string `json:"size,omitempty"`
	Flex   int    `json:"flex,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
	Margin string `json:"margin,omitempty"`
}

type Separator struct {
	Type   string `json:"type"`
	Margin string `json:"margin,omitempty"`
}

type Button struct {
	Type   string    `json:"type"`
	Action URIAction `json:"action"`
	Style  string    `json:"style,omitempty"`
	Color  string    `json:"color,omitempty"`
}

type URIAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URI   string `json:"uri"`
}

func (*Box) flexComponent()       {}
func (*Text) flexComponent()      {}
func (*Separator) flexComponent() {}
func (*Button) flexComponent()    {}

func box(layout string, contents ...Component) *Box {
	return &Box{Type: "box", Layout: layout, Contents: contents}
}

func text(s string) *Text {
	return &Text{Type: "text", Text: s}
}

// Alert copy shown to the administrator.
const (
	alertTitle      = "🚨 รายงานพบเหตุช้างป่า"
	alertAltText    = "🚨 แจ้งเตือนพบช้างป่าใกล้ตำแหน่งคุณ!"
	labelDistance   = "ระยะห่าง"
	labelStatus     = "สถานะช้าง"
	labelQuery      = "สิ่งที่ผู้ใช้สอบถาม/สถานการณ์:"
	labelMapButton  = "เปิดแผนที่นำทาง"
	unitKm          = "กม."
	fallbackStatus  = "ไม่ระบุสถานะ"
	fallbackQuery   = "ไม่มีข้อมูลสอบถาม"
	SimulationQuery = "ระบบจำลองสถานการณ์ (Real-time Distance)"
)

// MapsURL links to the user's position in Google Maps.
func MapsURL(p models.Position) string {
	q := strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(q)
}

// ProximityAlert builds the bubble pushed when the subject nears a user.
func ProximityAlert(query, distanceKm, status string, user models.Position) FlexMessage {
	if status == "" {
		status = fallbackStatus
	}
	if query == "" {
		query = fallbackQuery
	}

	header := box("vertical", &Text{Type: "text", Text: alertTitle, Weight: "bold", Color: "#ffffff", Size: "md"})
	header.BackgroundColor = "#FF4B2B"

	row := func(label string, value *Text) *Box {
		l := text(label)
		l.Color, l.Size, l.Flex = "#aaaaaa", "sm", 2
		value.Wrap, value.Color, value.Size, value.Flex = true, "#333333", "sm", 4
		b := box("baseline", l, value)
		b.Spacing = "sm"
		return b
	}

	distance := text(distanceKm + " " + unitKm)
	distance.Weight = "bold"

	facts := box("vertical", row(labelDistance, distance), row(labelStatus, text(status)))
	facts.Spacing = "sm"

	queryLabel := &Text{Type: "text", Text: labelQuery, Size: "xs", Color: "#8c8c8c", Weight: "bold"}
	queryText := &Text{Type: "text", Text: query, Size: "sm", Color: "#555555", Wrap: true, Margin: "sm"}
	queryBox := box("vertical", queryLabel, queryText)
	queryBox.Margin = "xl"

	body := box("vertical", facts, &Separator{Type: "separator", Margin: "xl"}, queryBox)

	footer := box("vertical", &Button{
		Type:   "button",
		Action: URIAction{Type: "uri", Label: labelMapButton, URI: MapsURL(user)},
		Style:  "primary",
		Color:  "#1B4D3E",
	})

	return FlexMessage{
		Type:    "flex",
		AltText: alertAltText,
		Contents: Bubble{
			Type:   "bubble",
			Header: header,
			Body:   body,
			Footer: footer,
		},
	}
}
