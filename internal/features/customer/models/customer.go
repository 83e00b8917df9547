package models

import "erp-telegram-bot/internal/platform/erp"

type ProfileResponse struct {
	Success   bool           `json:"success"`
	Customer  *erp.Customer  `json:"customer"`
	Contracts []erp.Contract `json:"contracts"`
	// Remaining is the sum outstanding across all contracts.
	Remaining float64 `json:"remaining"`
}

type RemindersResponse struct {
	Success      bool           `json:"success"`
	CustomerName string         `json:"customer_name,omitempty"`
	Reminders    []erp.Reminder `json:"reminders"`
}

func NewProfileResponse(lookup erp.CustomerLookup) ProfileResponse {
	resp := ProfileResponse{Success: true, Customer: lookup.Customer, Contracts: lookup.Contracts}
	if resp.Contracts == nil {
		resp.Contracts = []erp.Contract{}
	}
	for _, c := range resp.Contracts {
		resp.Remaining += c.Remaining
	}
	return resp
}

func NewRemindersResponse(list erp.ReminderList) RemindersResponse {
	resp := RemindersResponse{Success: true, CustomerName: list.CustomerName, Reminders: list.Reminders}
	if resp.Reminders == nil {
		resp.Reminders = []erp.Reminder{}
	}
	return resp
}
