package bridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/lib/pq"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// Events is the supervisor surface the WhatsApp client reports to.
type Events interface {
	OnConnected()
	OnDisconnected()
	OnLoggedOut()
}

// WhatsApp is a whatsmeow client whose session lives in Postgres.
type WhatsApp struct {
	db     *sql.DB
	client *whatsmeow.Client

	mu     sync.Mutex
	qr     string
	events Events
}

// PingDatabase checks that the session database is reachable.
func PingDatabase(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}

// OpenWhatsApp opens the session store and loads the first device, creating
// an unpaired one if the store is empty.
func OpenWhatsApp(ctx context.Context, databaseURL string) (*WhatsApp, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is required for the whatsapp session store")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	container := sqlstore.NewWithDB(db, "postgres", waLog.Stdout("Database", "ERROR", true))
	if err := container.Upgrade(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("upgrade session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load device: %w", err)
	}

	client := whatsmeow.NewClient(device, waLog.Stdout("Client", "ERROR", true))
	client.EnableAutoReconnect = false
	w := &WhatsApp{db: db, client: client}
	client.AddEventHandler(w.handleEvent)
	return w, nil
}

// Bind routes connection events to ev. Call before the first Connect.
func (w *WhatsApp) Bind(ev Events) {
	w.mu.Lock()
	w.events = ev
	w.mu.Unlock()
}

// Connect opens the websocket. An unpaired device starts the QR flow; the
// latest code is available from QR.
func (w *WhatsApp) Connect() error {
	if w.client.Store.ID == nil {
		qrs, err := w.client.GetQRChannel(context.Background())
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		go w.watchQR(qrs)
	}
	return w.client.Connect()
}

func (w *WhatsApp) Disconnect() { w.client.Disconnect() }

func (w *WhatsApp) watchQR(qrs <-chan whatsmeow.QRChannelItem) {
	for item := range qrs {
		switch item.Event {
		case "code":
			slog.Info("whatsapp pairing code ready, open the web page to scan it")
			w.setQR(item.Code)
		case "success":
			w.setQR("")
		case "timeout":
			slog.Warn("whatsapp pairing timed out")
			w.setQR("")
			w.emit(Events.OnDisconnected)
		default:
			if item.Error != nil {
				slog.Warn("whatsapp pairing", "event", item.Event, "err", item.Error)
			}
		}
	}
}

func (w *WhatsApp) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		slog.Info("whatsapp connected")
		w.emit(Events.OnConnected)
	case *events.PairSuccess:
		slog.Info("whatsapp paired", "jid", v.ID.String())
		w.setQR("")
	case *events.Disconnected:
		w.emit(Events.OnDisconnected)
	case *events.StreamReplaced:
		slog.Warn("whatsapp session opened elsewhere")
		w.emit(Events.OnLoggedOut)
	case *events.LoggedOut:
		slog.Warn("whatsapp logged out", "reason", v.Reason)
		w.emit(Events.OnLoggedOut)
	}
}

func (w *WhatsApp) emit(fn func(Events)) {
	w.mu.Lock()
	ev := w.events
	w.mu.Unlock()
	if ev != nil {
		fn(ev)
	}
}

func (w *WhatsApp) setQR(code string) {
	w.mu.Lock()
	w.qr = code
	w.mu.Unlock()
}

// QR returns the pending pairing code, or "" when there is none.
func (w *WhatsApp) QR() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.qr
}

// Paired reports whether the device has a stored identity.
func (w *WhatsApp) Paired() bool { return w.client.Store.ID != nil }

func (w *WhatsApp) SendText(ctx context.Context, to types.JID, text string) error {
	_, err := w.client.SendMessage(ctx, to, &waE2E.Message{Conversation: proto.String(text)})
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

func (w *WhatsApp) SendMedia(ctx context.Context, to types.JID, m Media) error {
	mt := whatsmeow.MediaDocument
	switch m.Kind {
	case MediaImage:
		mt = whatsmeow.MediaImage
	case MediaVideo:
		mt = whatsmeow.MediaVideo
	}
	up, err := w.client.Upload(ctx, m.Data, mt)
	if err != nil {
		return fmt.Errorf("upload %s: %w", m.Kind, err)
	}
	if _, err := w.client.SendMessage(ctx, to, mediaMessage(m, up)); err != nil {
		return fmt.Errorf("send %s: %w", m.Kind, err)
	}
	return nil
}

func mediaMessage(m Media, up whatsmeow.UploadResponse) *waE2E.Message {
	size := proto.Uint64(uint64(len(m.Data)))
	switch m.Kind {
	case MediaImage:
		return &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			URL: proto.String(up.URL), DirectPath: proto.String(up.DirectPath), MediaKey: up.MediaKey,
			Mimetype: proto.String(m.Mime), Caption: proto.String(m.Caption),
			FileLength: size, FileSHA256: up.FileSHA256, FileEncSHA256: up.FileEncSHA256,
		}}
	case MediaVideo:
		return &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			URL: proto.String(up.URL), DirectPath: proto.String(up.DirectPath), MediaKey: up.MediaKey,
			Mimetype: proto.String(m.Mime), Caption: proto.String(m.Caption),
			FileLength: size, FileSHA256: up.FileSHA256, FileEncSHA256: up.FileEncSHA256,
		}}
	}
	return &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
		URL: proto.String(up.URL), DirectPath: proto.String(up.DirectPath), MediaKey: up.MediaKey,
		Mimetype: proto.String(m.Mime), FileName: proto.String(m.FileName), Title: proto.String(m.FileName),
		Caption:    proto.String(m.Caption),
		FileLength: size, FileSHA256: up.FileSHA256, FileEncSHA256: up.FileEncSHA256,
	}}
}

// Close disconnects and releases the database.
func (w *WhatsApp) Close() error {
	w.client.Disconnect()
	return w.db.Close()
}
