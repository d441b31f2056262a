package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusPreparing, true},
		{StatusPreparing, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusOutForDelivery, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusPending, false},
		{StatusDelivered, StatusConfirmed, false},
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	if s, err := ParseOrderStatus(" Out_For_Delivery "); err != nil || s != StatusOutForDelivery {
		t.Errorf("ParseOrderStatus = %q, %v", s, err)
	}
	if _, err := ParseOrderStatus("baking"); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("unknown status error = %v", err)
	}
}

func TestPriceOrder(t *testing.T) {
	tests := []struct {
		name       string
		subtotal   int
		effect     Effect
		wantTotal  int
		wantDisc   int
		wantPoints int
	}{
		{"discount 50 on 235", 235, MustDiscount(50), 185, 50, 18},
		{"no coupon", 235, NoEffect, 235, 0, 23},
		{"discount capped at subtotal", 35, MustDiscount(50), 0, 35, 0},
		{"free item leaves total", 110, MustFreeItem("Veg Roll"), 110, 0, 11},
		{"under ten rupees", 9, NoEffect, 9, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PriceOrder(tt.subtotal, tt.effect, 10)
			if p.Total != tt.wantTotal || p.Discount != tt.wantDisc || p.LoyaltyPoints != tt.wantPoints {
				t.Errorf("PriceOrder() = %+v, want total %d discount %d points %d",
					p, tt.wantTotal, tt.wantDisc, tt.wantPoints)
			}
		})
	}
}

func TestOrderCanSpin(t *testing.T) {
	o := &Order{Status: StatusPreparing}
	if o.CanSpin() {
		t.Error("CanSpin() true before delivery")
	}
	o.Status = StatusDelivered
	if !o.CanSpin() {
		t.Error("CanSpin() false for delivered order")
	}
	o.SpinUsed = true
	if o.CanSpin() {
		t.Error("CanSpin() true after spin used")
	}
}

func TestGenerateOrderID(t *testing.T) {
	day := time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC)
	if got := GenerateOrderID(day, 7); got != "BC202603090007" {
		t.Errorf("GenerateOrderID() = %q", got)
	}
}

func TestCustomerInfoValidate(t *testing.T) {
	tests := []struct {
		name        string
		info        CustomerInfo
		wantMissing bool
		wantErr     bool
	}{
		{"valid", CustomerInfo{Name: "Asha", Phone: "9876543210", Address: "12 MG Road"}, false, false},
		{"missing name", CustomerInfo{Name: "  ", Address: "12 MG Road"}, true, true},
		{"missing address", CustomerInfo{Name: "Asha"}, true, true},
		{"bad phone", CustomerInfo{Name: "Asha", Phone: "call me", Address: "12 MG Road"}, false, true},
		{"bad payment", CustomerInfo{Name: "Asha", Address: "12 MG Road", PaymentMethod: "card"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.info
			err := info.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrMissingCustomerInfo) != tt.wantMissing {
				t.Errorf("missing customer info = %v, want %v", errors.Is(err, ErrMissingCustomerInfo), tt.wantMissing)
			}
			var ve ValidationError
			if err != nil && !errors.As(err, &ve) {
				t.Errorf("error %v carries no field", err)
			}
			if err == nil && info.PaymentMethod != PaymentCash {
				t.Errorf("payment method default = %q", info.PaymentMethod)
			}
		})
	}
}

func TestNotificationMessageForStatus(t *testing.T) {
	uid := int64(4)
	o := &Order{ID: "BC202601010001", UserID: &uid, Status: StatusOutForDelivery}
	msg := NewStatusUpdateMessage(o, StatusPreparing, time.Now())

	if msg.Notification.Title != "Order BC202601010001 Updated" {
		t.Errorf("title = %q", msg.Notification.Title)
	}
	if msg.Notification.Message != "Your order status has been updated to: Out for Delivery" {
		t.Errorf("message = %q", msg.Notification.Message)
	}

	o.Status = StatusDelivered
	if got := NewStatusUpdateMessage(o, StatusOutForDelivery, time.Now()).Notification.Kind; got != NotificationSuccess {
		t.Errorf("delivered kind = %q", got)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back NotificationMessage
	if err := json.Unmarshal(body, &back); err != nil || back.NewStatus != StatusOutForDelivery {
		t.Errorf("round trip = %+v, %v", back, err)
	}
}
