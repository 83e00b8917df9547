package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authservice "erp-telegram-bot/internal/features/auth/service"
	"erp-telegram-bot/internal/features/session/models"
	"erp-telegram-bot/internal/features/session/repository"
	sessionredis "erp-telegram-bot/internal/features/session/repository/redis"
	"erp-telegram-bot/internal/mocks"
	"erp-telegram-bot/internal/platform/erp"
	platformredis "erp-telegram-bot/internal/platform/redis"
	"erp-telegram-bot/internal/presentation"
)

var (
	_ Gateway   = (*mocks.ERPGateway)(nil)
	_ Messenger = (*mocks.Messenger)(nil)
)

var operator = erp.SupportContact{Name: "Dilnoza", Phone: "+998 90 123 45 67"}

type staticSupport erp.SupportContact

func (s staticSupport) Contact(context.Context) erp.SupportContact { return erp.SupportContact(s) }

type fixture struct {
	router    *Router
	gateway   *mocks.ERPGateway
	messenger *mocks.Messenger
	sessions  repository.SessionRepository
	renderer  *presentation.Renderer
	redis     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	renderer := presentation.MustNew()
	sessions := sessionredis.NewSessionRepository(platformredis.Wrap(client), 0)
	gateway := mocks.NewERPGateway()
	messenger := mocks.NewMessenger()
	machine := authservice.NewMachine(gateway, sessions, renderer.IsMenuText, zerolog.Nop())

	return &fixture{
		router:    NewRouter(machine, gateway, messenger, renderer, staticSupport(operator), zerolog.Nop()),
		gateway:   gateway,
		messenger: messenger,
		sessions:  sessions,
		renderer:  renderer,
		redis:     mr,
	}
}

func (f *fixture) await(t *testing.T, userID int64) {
	t.Helper()
	require.NoError(t, f.sessions.SetStage(context.Background(), userID, models.StageAwaitingPassport))
}

func text(s string) Event {
	return Event{UserID: 555, ChatID: 555, Text: s}
}

func command(name string) Event {
	return Event{UserID: 555, ChatID: 555, Text: "/" + name, Command: name}
}

func callback(data string) Event {
	return Event{UserID: 555, ChatID: 555, CallbackID: "cb-1", CallbackData: data}
}

func TestResolve_EveryEventHasExactlyOneTier(t *testing.T) {
	f := newFixture(t)
	menu := f.renderer.Button(presentation.ButtonContracts)

	cases := []struct {
		name     string
		ev       Event
		awaiting bool
		want     Tier
	}{
		{"start command", command("start"), false, TierCommand},
		{"start command while awaiting", command("start"), true, TierCommand},
		{"restart command", command("restart"), true, TierCommand},
		{"unknown command", command("foo"), true, TierFallback},
		{"menu text", text(menu), false, TierMenu},
		{"menu text while awaiting", text(menu), true, TierMenu},
		{"contract callback", callback("contract:SO-1"), true, TierCallback},
		{"back callback", callback("back:menu"), false, TierCallback},
		{"unknown callback", callback("vote:1"), false, TierFallback},
		{"callback with menu-like data", callback(menu), false, TierFallback},
		{"passport while awaiting", text("AB1234567"), true, TierPassport},
		{"malformed passport while awaiting", text("12345"), true, TierPassport},
		{"passport while idle", text("AB1234567"), false, TierFallback},
		{"long text while awaiting", text("salom, qandaysiz?"), true, TierFallback},
		{"non-text message while awaiting", text(""), true, TierFallback},
		{"free text while idle", text("salom"), false, TierFallback},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, f.sessions.Clear(ctx, 555))
			if c.awaiting {
				f.await(t, 555)
			}
			got := f.router.Resolve(ctx, c.ev)
			assert.Equal(t, c.want, got)
			assert.GreaterOrEqual(t, int(got), int(TierCommand))
			assert.LessOrEqual(t, int(got), int(TierFallback))
		})
	}
}

func TestDispatch_StartThenPassportLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gateway.LookupByPassportFunc = func(ctx context.Context, passport string, platformID int64) (*erp.Result[erp.CustomerLookup], error) {
		return &erp.Result[erp.CustomerLookup]{
			Success: true,
			Data: erp.CustomerLookup{
				Customer:  &erp.Customer{ID: "CUST-01", Name: "Ali Valiyev"},
				IsNewLink: true,
			},
		}, nil
	}

	f.router.Dispatch(ctx, command("start"))
	assert.Equal(t, f.renderer.PassportPrompt().Text, f.messenger.Last().Reply.Text)

	f.router.Dispatch(ctx, text("AB1234567"))
	last := f.messenger.Last()
	assert.Equal(t, int64(555), last.ChatID)
	assert.Contains(t, last.Reply.Text, "Ali Valiyev")

	s, err := f.sessions.Get(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, models.StageIdle, s.Stage)
	assert.Equal(t, "CUST-01", s.Data[models.DataCustomerID])
}

func TestDispatch_StartRecognizedShowsProfile(t *testing.T) {
	f := newFixture(t)
	customer := &erp.Customer{ID: "CUST-01", Name: "Ali Valiyev", Phone: "+998901112233"}
	contracts := []erp.Contract{{ID: "SO-1", Remaining: 800000}}
	f.gateway.LookupByPlatformIDFunc = func(ctx context.Context, platformID int64) (*erp.Result[erp.CustomerLookup], error) {
		return &erp.Result[erp.CustomerLookup]{
			Success: true,
			Data:    erp.CustomerLookup{Customer: customer, Contracts: contracts},
		}, nil
	}

	f.router.Dispatch(context.Background(), command("start"))

	reply := f.messenger.Last().Reply
	assert.Contains(t, reply.Text, "Xush kelibsiz")
	assert.Contains(t, reply.Text, f.renderer.Profile(customer, contracts).Text)
}

func TestDispatch_ConflictShowsOperator(t *testing.T) {
	f := newFixture(t)
	f.await(t, 555)
	f.gateway.LookupByPassportFunc = func(ctx context.Context, passport string, platformID int64) (*erp.Result[erp.CustomerLookup], error) {
		return &erp.Result[erp.CustomerLookup]{ErrorCode: erp.CodePassportLinkedElsewhere}, nil
	}

	f.router.Dispatch(context.Background(), text("AA7654321"))
	assert.Contains(t, f.messenger.Last().Reply.Text, operator.Phone)

	stage, err := f.sessions.GetStage(context.Background(), 555)
	require.NoError(t, err)
	assert.Equal(t, models.StageAwaitingPassport, stage)
}

func TestDispatch_MenuTapWhileAwaitingIsNotPassport(t *testing.T) {
	f := newFixture(t)
	f.await(t, 555)
	f.gateway.ListContractsFunc = func(ctx context.Context, platformID int64) (*erp.Result[erp.ContractList], error) {
		return &erp.Result[erp.ContractList]{ErrorCode: erp.CodeCustomerNotFound}, nil
	}

	f.router.Dispatch(context.Background(), text(f.renderer.Button(presentation.ButtonContracts)))

	assert.Zero(t, f.gateway.Calls("LookupByPassport"))
	assert.Equal(t, f.renderer.NotLinked().Text, f.messenger.Last().Reply.Text)
}

func TestDispatch_PanicEndsInApology(t *testing.T) {
	f := newFixture(t)
	f.gateway.ListContractsFunc = func(ctx context.Context, platformID int64) (*erp.Result[erp.ContractList], error) {
		panic("boom")
	}

	assert.NotPanics(t, func() {
		f.router.Dispatch(context.Background(), text(f.renderer.Button(presentation.ButtonContracts)))
	})
	assert.Equal(t, f.renderer.Apology(operator).Text, f.messenger.Last().Reply.Text)
}

func TestDispatch_StoreFailureEndsInApology(t *testing.T) {
	f := newFixture(t)
	f.redis.Close()

	f.router.Dispatch(context.Background(), command("start"))
	assert.Equal(t, f.renderer.Apology(operator).Text, f.messenger.Last().Reply.Text)
}

func TestDispatch_ERPOutageInFeatureHandler(t *testing.T) {
	f := newFixture(t)
	f.gateway.ListRemindersFunc = func(ctx context.Context, platformID int64) (*erp.Result[erp.ReminderList], error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	f.router.Dispatch(context.Background(), text(f.renderer.Button(presentation.ButtonReminders)))
	assert.Equal(t, f.renderer.Unavailable(operator).Text, f.messenger.Last().Reply.Text)
}

func TestDispatch_CallbackIsAnsweredAndOwnershipChecked(t *testing.T) {
	f := newFixture(t)
	f.gateway.ListContractsFunc = func(ctx context.Context, platformID int64) (*erp.Result[erp.ContractList], error) {
		return &erp.Result[erp.ContractList]{Success: true, Data: erp.ContractList{Contracts: []erp.Contract{{ID: "SO-1"}}}}, nil
	}
	f.gateway.GetContractDetailFunc = func(ctx context.Context, contractID string) (*erp.Result[erp.ContractDetail], error) {
		return &erp.Result[erp.ContractDetail]{Success: true, Data: erp.ContractDetail{Contract: &erp.Contract{ID: contractID}}}, nil
	}

	f.router.Dispatch(context.Background(), callback("contract:SO-9"))
	assert.Zero(t, f.gateway.Calls("GetContractDetail"))

	f.router.Dispatch(context.Background(), callback("contract:SO-1"))
	assert.Equal(t, 1, f.gateway.Calls("GetContractDetail"))
	assert.Equal(t, f.renderer.ContractDetail(&erp.Contract{ID: "SO-1"}).Text, f.messenger.Last().Reply.Text)

	assert.Equal(t, []string{"cb-1", "cb-1"}, f.messenger.Answered())
}

func TestDispatch_ScheduleAndPayments(t *testing.T) {
	f := newFixture(t)
	f.gateway.ListContractsFunc = func(ctx context.Context, platformID int64) (*erp.Result[erp.ContractList], error) {
		return &erp.Result[erp.ContractList]{Success: true, Data: erp.ContractList{Contracts: []erp.Contract{{ID: "SO-1"}}}}, nil
	}
	f.gateway.GetPaymentScheduleFunc = func(ctx context.Context, contractID string) (*erp.Result[erp.PaymentSchedule], error) {
		return &erp.Result[erp.PaymentSchedule]{Success: true, Data: erp.PaymentSchedule{Schedule: []erp.ScheduleEntry{{Month: 1, DueDate: "2026-11-10", Amount: 100}}}}, nil
	}
	f.gateway.GetPaymentHistoryFunc = func(ctx context.Context, contractID string) (*erp.Result[erp.PaymentHistory], error) {
		return &erp.Result[erp.PaymentHistory]{Success: true, Data: erp.PaymentHistory{Payments: []erp.Payment{{Date: "2026-10-10", Amount: 100}}}}, nil
	}

	f.router.Dispatch(context.Background(), callback("schedule:SO-1"))
	assert.Contains(t, f.messenger.Last().Reply.Text, "SO-1")

	f.router.Dispatch(context.Background(), callback("payments:SO-1"))
	assert.Equal(t, 1, f.gateway.Calls("GetPaymentHistory"))

	f.router.Dispatch(context.Background(), callback("back:menu"))
	assert.Equal(t, f.renderer.Menu().Text, f.messenger.Last().Reply.Text)
}

func TestDispatch_FallbackHintsPassportWhileAwaiting(t *testing.T) {
	f := newFixture(t)

	f.router.Dispatch(context.Background(), text("salom"))
	assert.Equal(t, f.renderer.Unknown(operator, false).Text, f.messenger.Last().Reply.Text)

	f.await(t, 555)
	f.router.Dispatch(context.Background(), text("salom, bu mening pasportim"))
	assert.Equal(t, f.renderer.Unknown(operator, true).Text, f.messenger.Last().Reply.Text)
}
