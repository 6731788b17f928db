package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Ananth-NQI/orderbot-backend/internal/config"
)

type fakeMessageCreator struct {
	params []*twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	err    error
}

func (f *fakeMessageCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestNewTwilioService_RequiresCredentials(t *testing.T) {
	_, err := NewTwilioService(config.TwilioConfig{AccountSID: "AC123"})
	require.Error(t, err)

	svc, err := NewTwilioService(config.TwilioConfig{AccountSID: "AC123", AuthToken: "token", WhatsAppFrom: "+14155238886"})
	require.NoError(t, err)
	require.Equal(t, "whatsapp:+14155238886", svc.from)
}

func TestTwilioService_SendAddsWhatsAppPrefix(t *testing.T) {
	api := &fakeMessageCreator{}
	svc := &TwilioService{api: api, from: "whatsapp:+14155238886"}

	require.NoError(t, svc.Send(context.Background(), "+5521888888888", "hello"))
	require.Len(t, api.params, 1)
	require.Equal(t, "whatsapp:+5521888888888", *api.params[0].To)
	require.Equal(t, "whatsapp:+14155238886", *api.params[0].From)
	require.Equal(t, "hello", *api.params[0].Body)
}

func TestTwilioService_SendReportsFailures(t *testing.T) {
	api := &fakeMessageCreator{err: errors.New("network down")}
	svc := &TwilioService{api: api, from: "whatsapp:+14155238886"}
	require.Error(t, svc.Send(context.Background(), "+5521888888888", "hello"))

	code := 63016
	text := "outside the allowed window"
	api = &fakeMessageCreator{resp: &twilioApi.ApiV2010Message{ErrorCode: &code, ErrorMessage: &text}}
	svc = &TwilioService{api: api, from: "whatsapp:+14155238886"}
	err := svc.Send(context.Background(), "+5521888888888", "hello")
	require.ErrorContains(t, err, "63016")
}

func TestTwilioService_SendHonoursCancelledContext(t *testing.T) {
	api := &fakeMessageCreator{}
	svc := &TwilioService{api: api, from: "whatsapp:+14155238886"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.Send(ctx, "+5521888888888", "hello"), context.Canceled)
	require.Empty(t, api.params)
}
