package dlna

import (
	"encoding/xml"
	"fmt"
	"net/url"
)

const (
	flagsStreaming = "01700000000000000000000000000000"
	flagsHeaders   = "21700000000000000000000000000000"
)

type didlLite struct {
	XMLName xml.Name `xml:"DIDL-Lite"`
	XMLNS   string   `xml:"xmlns,attr"`
	DC      string   `xml:"xmlns:dc,attr"`
	UPnP    string   `xml:"xmlns:upnp,attr"`
	Item    didlItem `xml:"item"`
}

type didlItem struct {
	ID         string  `xml:"id,attr"`
	ParentID   string  `xml:"parentID,attr"`
	Restricted string  `xml:"restricted,attr"`
	Title      string  `xml:"dc:title"`
	Class      string  `xml:"upnp:class"`
	Res        didlRes `xml:"res"`
}

type didlRes struct {
	ProtocolInfo string `xml:"protocolInfo,attr"`
	Value        string `xml:",chardata"`
}

// Metadata renders the DIDL-Lite item SetAVTransportURI carries.
func Metadata(streamURL *url.URL, contentType, title string) (string, error) {
	doc := didlLite{
		XMLNS: "urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/",
		DC:    "http://purl.org/dc/elements/1.1/",
		UPnP:  "urn:schemas-upnp-org:metadata-1-0/upnp/",
		Item: didlItem{
			ID:         "0",
			ParentID:   "-1",
			Restricted: "1",
			Title:      title,
			Class:      "object.item.videoItem",
			Res: didlRes{
				ProtocolInfo: fmt.Sprintf("http-get:*:%s:%s", contentType, features(contentType, flagsStreaming)),
				Value:        streamURL.String(),
			},
		},
	}

	data, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding DIDL-Lite: %w", err)
	}
	return string(data), nil
}

// StreamHeaders are the response headers renderers expect on a live stream.
func StreamHeaders(contentType string) map[string]string {
	return map[string]string{
		"Accept-Ranges":            "none",
		"transferMode.dlna.org":    "Streaming",
		"contentFeatures.dlna.org": features(contentType, flagsHeaders),
	}
}

func features(contentType, flags string) string {
	var pn string
	switch contentType {
	case "video/mp2t":
		pn = "DLNA.ORG_PN=MPEG_TS_HD_NA;"
	case "video/mp4":
		pn = "DLNA.ORG_PN=AVC_MP4_HP_HD_AAC;"
	}
	return pn + "DLNA.ORG_OP=00;DLNA.ORG_CI=1;DLNA.ORG_FLAGS=" + flags
}
