package phoebus

import "encoding/xml"

const (
	// XIncludeNamespace is the namespace of inclusion elements.
	XIncludeNamespace = "http://www.w3.org/2001/XInclude"
	// ConfigXPointer selects the content of an included configuration.
	ConfigXPointer = "xpointer(/config/*)"

	elementConfig    = "config"
	elementComponent = "component"
	elementGuidance  = "guidance"
	elementDisplay   = "display"
	elementCommand   = "command"
	attributeName    = "name"
)

// pvElement is the <pv> element of one channel.
type pvElement struct {
	XMLName     xml.Name `xml:"pv"`
	Name        string   `xml:"name,attr"`
	Enabled     bool     `xml:"enabled"`
	Latching    bool     `xml:"latching"`
	Filter      string   `xml:"filter,omitempty"`
	Guidance    string   `xml:"guidance,omitempty"`
	Display     string   `xml:"display,omitempty"`
	Commands    []string `xml:"command"`
	Description string   `xml:"description,omitempty"`
	Count       string   `xml:"count,omitempty"`
	Delay       string   `xml:"delay,omitempty"`
}

// includeElement is the <xi:include> element of one inclusion marker.
type includeElement struct {
	XMLName   xml.Name `xml:"xi:include"`
	Href      string   `xml:"href,attr"`
	XPointer  string   `xml:"xpointer,attr"`
	Namespace string   `xml:"xmlns:xi,attr"`
}

// nameAttr builds a name="..." attribute.
func nameAttr(value string) []xml.Attr {
	return []xml.Attr{{Name: xml.Name{Local: attributeName}, Value: value}}
}
