package bridge

import (
	"testing"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"
)

type countingEvents struct{ connected, disconnected, loggedOut int }

func (c *countingEvents) OnConnected()    { c.connected++ }
func (c *countingEvents) OnDisconnected() { c.disconnected++ }
func (c *countingEvents) OnLoggedOut()    { c.loggedOut++ }

func TestHandleEventRoutesToSupervisor(t *testing.T) {
	w := &WhatsApp{}
	ev := &countingEvents{}
	w.Bind(ev)
	w.setQR("2@abc")

	w.handleEvent(&events.Connected{})
	w.handleEvent(&events.Disconnected{})
	w.handleEvent(&events.LoggedOut{})
	w.handleEvent(&events.StreamReplaced{})
	w.handleEvent(&events.PairSuccess{})

	if ev.connected != 1 || ev.disconnected != 1 || ev.loggedOut != 2 {
		t.Fatalf("events = %+v", ev)
	}
	if w.QR() != "" {
		t.Fatal("pair success did not clear the qr code")
	}
}

func TestWatchQR(t *testing.T) {
	w := &WhatsApp{}
	ev := &countingEvents{}
	w.Bind(ev)
	ch := make(chan whatsmeow.QRChannelItem, 2)
	ch <- whatsmeow.QRChannelItem{Event: "code", Code: "2@xyz"}
	close(ch)
	w.watchQR(ch)
	if w.QR() != "2@xyz" {
		t.Fatalf("qr = %q", w.QR())
	}

	ch = make(chan whatsmeow.QRChannelItem, 1)
	ch <- whatsmeow.QRChannelItem{Event: "timeout"}
	close(ch)
	w.watchQR(ch)
	if w.QR() != "" || ev.disconnected != 1 {
		t.Fatalf("qr=%q disconnected=%d", w.QR(), ev.disconnected)
	}
}

func TestMediaMessage(t *testing.T) {
	up := whatsmeow.UploadResponse{URL: "https://mmg/x", DirectPath: "/x", MediaKey: []byte{1}}
	tests := []struct {
		kind  MediaKind
		check func(t *testing.T, m Media, up whatsmeow.UploadResponse)
	}{
		{MediaImage, func(t *testing.T, m Media, up whatsmeow.UploadResponse) {
			msg := mediaMessage(m, up)
			if msg.GetImageMessage().GetCaption() != "cap" || msg.GetImageMessage().GetFileLength() != 3 {
				t.Fatalf("image = %v", msg)
			}
		}},
		{MediaVideo, func(t *testing.T, m Media, up whatsmeow.UploadResponse) {
			msg := mediaMessage(m, up)
			if msg.GetVideoMessage().GetURL() != "https://mmg/x" || msg.GetVideoMessage().GetMimetype() != "video/mp4" {
				t.Fatalf("video = %v", msg)
			}
		}},
		{MediaDocument, func(t *testing.T, m Media, up whatsmeow.UploadResponse) {
			msg := mediaMessage(m, up)
			if msg.GetDocumentMessage().GetFileName() != "a.bin" || msg.GetDocumentMessage().GetDirectPath() != "/x" {
				t.Fatalf("document = %v", msg)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			tt.check(t, Media{Kind: tt.kind, Data: []byte("abc"), Mime: "video/mp4", FileName: "a.bin", Caption: "cap"}, up)
		})
	}
}
