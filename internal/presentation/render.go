// Package presentation turns ERP data into Telegram messages and keyboards.
// All user-facing text lives in catalog.yaml.
package presentation

import (
	_ "embed"
	"fmt"
	"html"
	"strings"
	"text/template"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gopkg.in/yaml.v3"

	"erp-telegram-bot/internal/platform/erp"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Button keys of the main reply keyboard.
const (
	ButtonProfile   = "profile"
	ButtonContracts = "contracts"
	ButtonPayments  = "payments"
	ButtonReminders = "reminders"
	ButtonHelp      = "help"
	ButtonBack      = "back"
)

var menuOrder = []string{ButtonProfile, ButtonContracts, ButtonPayments, ButtonReminders, ButtonHelp, ButtonBack}

var commandOrder = []string{"start", "menu", "help", "restart"}

const fallbackText = "Xatolik yuz berdi. /start buyrug'i bilan qaytadan urinib ko'ring."

// Reply is one outbound message.
type Reply struct {
	Text      string
	ParseMode string
	Markup    interface{}
}

// PaymentReceipt is the data shown in a payment confirmation.
type PaymentReceipt struct {
	PaymentID  string
	ContractID string
	Amount     float64
	Date       string
	Method     string
}

type catalog struct {
	Currency  string            `yaml:"currency"`
	Buttons   map[string]string `yaml:"buttons"`
	Inline    map[string]string `yaml:"inline"`
	Commands  map[string]string `yaml:"commands"`
	Messages  map[string]string `yaml:"messages"`
	Contact   string            `yaml:"contact"`
	Reminders map[string]string `yaml:"reminders"`
	Due       map[string]string `yaml:"due"`
}

type Renderer struct {
	cat      catalog
	tpl      *template.Template
	menuKeys map[string]string
}

func New() (*Renderer, error) {
	var cat catalog
	if err := yaml.Unmarshal(catalogYAML, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, key := range menuOrder {
		if cat.Buttons[key] == "" {
			return nil, fmt.Errorf("catalog: missing button %q", key)
		}
	}

	r := &Renderer{cat: cat, menuKeys: make(map[string]string, len(cat.Buttons))}
	for key, text := range cat.Buttons {
		r.menuKeys[text] = key
	}

	root := template.New("").Funcs(template.FuncMap{
		"esc":        html.EscapeString,
		"money":      func(v float64) string { return FormatMoney(v, cat.Currency) },
		"qty":        FormatQty,
		"abs":        absInt,
		"statusIcon": statusIcon,
	})
	if _, err := root.New("contact").Parse(cat.Contact); err != nil {
		return nil, fmt.Errorf("template contact: %w", err)
	}
	groups := map[string]map[string]string{
		"messages":  cat.Messages,
		"reminders": cat.Reminders,
		"due":       cat.Due,
	}
	for group, templates := range groups {
		for name, body := range templates {
			if _, err := root.New(group + "/" + name).Parse(body); err != nil {
				return nil, fmt.Errorf("template %s/%s: %w", group, name, err)
			}
		}
	}
	r.tpl = root
	return r, nil
}

func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) execute(name string, data interface{}) string {
	var b strings.Builder
	if err := r.tpl.ExecuteTemplate(&b, name, data); err != nil {
		return fallbackText
	}
	return strings.TrimSpace(b.String())
}

func (r *Renderer) html(name string, data interface{}, markup interface{}) Reply {
	return Reply{Text: r.execute("messages/"+name, data), ParseMode: tgbotapi.ModeHTML, Markup: markup}
}

// Button returns the caption of a main menu button.
func (r *Renderer) Button(key string) string {
	return r.cat.Buttons[key]
}

// MenuAction maps an exact button caption back to its key.
func (r *Renderer) MenuAction(text string) (string, bool) {
	key, ok := r.menuKeys[text]
	return key, ok
}

func (r *Renderer) IsMenuText(text string) bool {
	_, ok := r.menuKeys[text]
	return ok
}

func (r *Renderer) MenuTexts() []string {
	texts := make([]string, 0, len(menuOrder))
	for _, key := range menuOrder {
		texts = append(texts, r.cat.Buttons[key])
	}
	return texts
}

// Commands lists the bot command menu in display order.
func (r *Renderer) Commands() []tgbotapi.BotCommand {
	cmds := make([]tgbotapi.BotCommand, 0, len(commandOrder))
	for _, name := range commandOrder {
		cmds = append(cmds, tgbotapi.BotCommand{Command: name, Description: r.cat.Commands[name]})
	}
	return cmds
}

func customerOrEmpty(c *erp.Customer) *erp.Customer {
	if c == nil {
		return &erp.Customer{}
	}
	return c
}

// WelcomeBack greets a recognised customer and shows their profile.
func (r *Renderer) WelcomeBack(c *erp.Customer, contracts []erp.Contract) Reply {
	reply := r.Profile(c, contracts)
	greeting := r.execute("messages/welcome_back", map[string]interface{}{"Customer": customerOrEmpty(c)})
	reply.Text = greeting + "\n\n" + reply.Text
	return reply
}

func (r *Renderer) Linked(c *erp.Customer, contracts []erp.Contract, isNewLink bool) Reply {
	return r.html("linked", map[string]interface{}{
		"Customer":  customerOrEmpty(c),
		"Contracts": contracts,
		"IsNewLink": isNewLink,
	}, r.MainKeyboard())
}

func (r *Renderer) Menu() Reply {
	return r.html("menu", nil, r.MainKeyboard())
}

func (r *Renderer) PassportPrompt() Reply {
	return r.html("passport_prompt", nil, nil)
}

func (r *Renderer) PassportFormatError() Reply {
	return r.html("passport_format", nil, nil)
}

func (r *Renderer) PassportNotFound(message string) Reply {
	return r.html("passport_not_found", map[string]interface{}{"Message": message}, nil)
}

func (r *Renderer) LinkConflict(message string, contact erp.SupportContact) Reply {
	return r.html("link_conflict", map[string]interface{}{"Message": message, "Contact": contact}, nil)
}

func (r *Renderer) Unavailable(contact erp.SupportContact) Reply {
	return r.html("unavailable", map[string]interface{}{"Contact": contact}, nil)
}

func (r *Renderer) Apology(contact erp.SupportContact) Reply {
	return r.html("apology", map[string]interface{}{"Contact": contact}, nil)
}

func (r *Renderer) NotLinked() Reply {
	return r.html("not_linked", nil, nil)
}

func (r *Renderer) Help(contact erp.SupportContact) Reply {
	return r.html("help", map[string]interface{}{"Contact": contact}, r.MainKeyboard())
}

func (r *Renderer) Unknown(contact erp.SupportContact, awaitingPassport bool) Reply {
	return r.html("unknown", map[string]interface{}{"Contact": contact, "AwaitingPassport": awaitingPassport}, nil)
}

func (r *Renderer) Profile(c *erp.Customer, contracts []erp.Contract) Reply {
	var remaining float64
	for _, ct := range contracts {
		remaining += ct.Remaining
	}
	return r.html("profile", map[string]interface{}{
		"Customer":  customerOrEmpty(c),
		"Contracts": contracts,
		"Remaining": remaining,
	}, r.MainKeyboard())
}

func (r *Renderer) ContractList(contracts []erp.Contract) Reply {
	if len(contracts) == 0 {
		return r.html("contracts_empty", nil, nil)
	}
	return r.html("contract_list", map[string]interface{}{"Contracts": contracts}, r.contractsKeyboard(contracts, CallbackContract))
}

func (r *Renderer) ContractDetail(c *erp.Contract) Reply {
	if c == nil {
		c = &erp.Contract{}
	}
	return r.html("contract_detail", c, r.contractKeyboard(c.ID))
}

func (r *Renderer) Schedule(contractID string, entries []erp.ScheduleEntry) Reply {
	data := map[string]interface{}{"ContractID": contractID, "Schedule": entries}
	markup := r.backKeyboard(r.cat.Inline["back_to_contract"], CallbackContract+contractID)
	if len(entries) == 0 {
		return r.html("schedule_empty", data, markup)
	}
	return r.html("schedule", data, markup)
}

// PaymentHistory renders payments of one contract (contractID set) or of
// every contract, offering per-contract drill-down buttons in the latter case.
func (r *Renderer) PaymentHistory(contractID string, payments []erp.Payment, contracts []erp.Contract) Reply {
	var markup interface{}
	if contractID != "" {
		markup = r.backKeyboard(r.cat.Inline["back_to_contract"], CallbackContract+contractID)
	} else if len(contracts) > 0 {
		markup = r.contractsKeyboard(contracts, CallbackPayments)
	}
	if len(payments) == 0 {
		return r.html("payment_history_empty", nil, markup)
	}
	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return r.html("payment_history", map[string]interface{}{
		"ContractID": contractID,
		"Payments":   payments,
		"Total":      total,
	}, markup)
}

func (r *Renderer) Reminders(list erp.ReminderList) Reply {
	if len(list.Reminders) == 0 {
		return r.html("reminder_list_empty", nil, nil)
	}
	return r.html("reminder_list", list, nil)
}

// HasReminderTemplate reports whether the daily sweep has a template for reminderType.
func (r *Renderer) HasReminderTemplate(reminderType string) bool {
	_, ok := r.cat.Reminders[reminderType]
	return ok
}

// DailyReminder renders one daily sweep entry; unknown types use the "today" text.
func (r *Renderer) DailyReminder(reminderType string, e erp.DueReminder, contact erp.SupportContact) Reply {
	if !r.HasReminderTemplate(reminderType) {
		reminderType = "today"
	}
	text := r.execute("reminders/"+reminderType, map[string]interface{}{
		"ContractID": e.ContractID,
		"DueDate":    e.DueDate,
		"Amount":     e.Amount,
		"Contact":    contact,
	})
	return Reply{Text: text, ParseMode: tgbotapi.ModeHTML}
}

// DueNotice renders an hourly sweep message for a due-date bucket.
func (r *Renderer) DueNotice(bucket string, order erp.DueOrder, daysOverdue int) Reply {
	if _, ok := r.cat.Due[bucket]; !ok {
		bucket = "overdue"
	}
	text := r.execute("due/"+bucket, map[string]interface{}{
		"ContractID":  order.Name,
		"Amount":      order.NextPaymentAmount,
		"DaysOverdue": daysOverdue,
	})
	return Reply{Text: text, ParseMode: tgbotapi.ModeHTML}
}

func (r *Renderer) PaymentConfirmation(p PaymentReceipt) Reply {
	return r.html("payment_confirmation", p, nil)
}
