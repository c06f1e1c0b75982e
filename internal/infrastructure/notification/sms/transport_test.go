package sms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeAPI struct {
	params []*twilioapi.CreateMessageParams
	err    error
	delay  time.Duration
}

func (f *fakeAPI) CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	f.params = append(f.params, params)
	sid := "SM123"
	return &twilioapi.ApiV2010Message{Sid: &sid}, nil
}

func newTestTransport(api messageCreator) *Transport {
	return &Transport{cfg: Config{From: "+15550000001", To: "+15550000002"}, api: api}
}

func TestTransport_Send(t *testing.T) {
	api := &fakeAPI{}
	transport := newTestTransport(api)

	if transport.Name() != "SMS" {
		t.Fatalf("unexpected name %q", transport.Name())
	}

	err := transport.Send(context.Background(), port.Notification{
		Subject:   "Alert: Blocked on Camera 1",
		ShortText: "Blocked on Camera 1!",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(api.params) != 1 {
		t.Fatalf("expected 1 message, got %d", len(api.params))
	}
	p := api.params[0]
	if *p.Body != "Blocked on Camera 1!" || *p.To != "+15550000002" || *p.From != "+15550000001" {
		t.Fatalf("unexpected params body=%s to=%s from=%s", *p.Body, *p.To, *p.From)
	}
}

func TestTransport_SendWithReceipt(t *testing.T) {
	sid, err := newTestTransport(&fakeAPI{}).SendWithReceipt(context.Background(), port.Notification{ShortText: "Weapon Detected on Camera 0!"})
	if err != nil {
		t.Fatalf("SendWithReceipt() error = %v", err)
	}
	if sid != "SM123" {
		t.Fatalf("expected message SID SM123, got %q", sid)
	}

	sid, err = newTestTransport(&fakeAPI{err: errors.New("20003 authenticate")}).SendWithReceipt(context.Background(), port.Notification{ShortText: "x"})
	if err == nil || sid != "" {
		t.Fatalf("expected error without SID, got sid=%q err=%v", sid, err)
	}
}

func TestTransport_FallsBackToSubject(t *testing.T) {
	api := &fakeAPI{}
	if err := newTestTransport(api).Send(context.Background(), port.Notification{Subject: "Alert: Weapon Detected on Camera 0"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if *api.params[0].Body != "Alert: Weapon Detected on Camera 0" {
		t.Fatalf("unexpected body %s", *api.params[0].Body)
	}
}

func TestTransport_SendError(t *testing.T) {
	err := newTestTransport(&fakeAPI{err: errors.New("21211 invalid 'To' number")}).Send(context.Background(), port.Notification{ShortText: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestTransport_SendHonorsTimeout(t *testing.T) {
	transport := newTestTransport(&fakeAPI{delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := transport.Send(ctx, port.Notification{ShortText: "x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("Send must return when the context expires")
	}
}

func TestNewTransport_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing sid", Config{AuthToken: "t", From: "+1", To: "+2"}, true},
		{"missing numbers", Config{AccountSID: "AC1", AuthToken: "t"}, true},
		{"valid", Config{AccountSID: "AC1", AuthToken: "t", From: "+1", To: "+2"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTransport(tt.cfg); (err != nil) != tt.wantErr {
				t.Fatalf("NewTransport() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
