package ventra

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductRole identifies which listing endpoint a product came from.
type ProductRole string

const (
	ProductRoleProducer   ProductRole = "producer"
	ProductRoleCoProducer ProductRole = "co_producer"
	ProductRoleAffiliate  ProductRole = "affiliate"
)

// CommissionRecord is one entry of a sale's commission split.
type CommissionRecord struct {
	Type          string
	AffiliateCode string
	Name          string
	Email         string
	ValueCents    int64
}

// SaleRecord is the canonical sale shape handed to the reconciler. Monetary
// values are minor currency units.
type SaleRecord struct {
	TransactionKey string
	ProductKey     string
	ProductName    string
	PlanKey        string
	PlanName       string
	ClientName     string
	ClientEmail    string
	ClientPhone    string
	ClientDocument string
	AmountCents    int64
	NetAmountCents int64
	PaymentMethod  string
	Status         string
	Commissions    []CommissionRecord
	SaleDate       time.Time
}

// AbandonRecord is the canonical abandoned-checkout shape.
type AbandonRecord struct {
	AbandonKey  string
	ProductKey  string
	ProductName string
	ClientName  string
	ClientEmail string
	ClientPhone string
	CheckoutURL string
	AmountCents int64
	AbandonedAt time.Time
}

// ProductRecord is the canonical product shape across the three listing
// variants.
type ProductRecord struct {
	ProductHash string
	Name        string
	Description string
	PriceCents  int64
	Role        ProductRole
}

type saleWire struct {
	Transaction   string               `json:"transaction"`
	ProductKey    string               `json:"product_key"`
	ProductName   string               `json:"product_name"`
	PlanKey       string               `json:"plan_key"`
	PlanName      string               `json:"plan_name"`
	ClientName    string               `json:"client_name"`
	ClientEmail   string               `json:"client_email"`
	ClientCell    string               `json:"client_cell"`
	ClientCPF     string               `json:"client_cpf"`
	Amount        float64              `json:"amount"`
	NetAmount     float64              `json:"net_amount"`
	PaymentMethod string               `json:"payment_method"`
	Status        string               `json:"status"`
	Commissions   []saleCommissionWire `json:"commissions"`
	DateSale      string               `json:"date_sale"`
}

type saleCommissionWire struct {
	Type          string  `json:"type"`
	AffiliateCode string  `json:"affiliate_code"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Value         float64 `json:"value"`
}

// abandonWire carries both field-naming conventions the gateway has shipped
// over the years: a legacy short-prefixed form (cli_*, prod_*) and the newer
// explicit form (client_*, product_*). Payloads in the wild mix the two.
type abandonWire struct {
	ID          string  `json:"id"`
	CheckoutURL string  `json:"checkout_url"`
	Amount      float64 `json:"amount"`
	DateAbandon string  `json:"date_abandon"`

	ProductKey  string `json:"product_key"`
	ProductName string `json:"product_name"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientCell  string `json:"client_cell"`

	ProdKey  string `json:"prod_key"`
	ProdName string `json:"prod_name"`
	CliName  string `json:"cli_name"`
	CliEmail string `json:"cli_email"`
	CliCel   string `json:"cli_cel"`
}

type productWire struct {
	Hash        string  `json:"hash"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func (w saleWire) normalize() SaleRecord {
	return SaleRecord{
		TransactionKey: strings.TrimSpace(w.Transaction),
		ProductKey:     strings.TrimSpace(w.ProductKey),
		ProductName:    strings.TrimSpace(w.ProductName),
		PlanKey:        strings.TrimSpace(w.PlanKey),
		PlanName:       strings.TrimSpace(w.PlanName),
		ClientName:     strings.TrimSpace(w.ClientName),
		ClientEmail:    strings.TrimSpace(w.ClientEmail),
		ClientPhone:    strings.TrimSpace(w.ClientCell),
		ClientDocument: strings.TrimSpace(w.ClientCPF),
		AmountCents:    toCents(w.Amount),
		NetAmountCents: toCents(w.NetAmount),
		PaymentMethod:  strings.TrimSpace(w.PaymentMethod),
		Status:         strings.TrimSpace(w.Status),
		Commissions:    normalizeCommissions(w.Commissions),
		SaleDate:       parseWireTime(w.DateSale),
	}
}

// normalize resolves each identity field independently, preferring the newer
// explicit form and falling back to the legacy short-prefixed form.
func (w abandonWire) normalize() AbandonRecord {
	return AbandonRecord{
		AbandonKey:  strings.TrimSpace(w.ID),
		ProductKey:  preferField(w.ProductKey, w.ProdKey),
		ProductName: preferField(w.ProductName, w.ProdName),
		ClientName:  preferField(w.ClientName, w.CliName),
		ClientEmail: preferField(w.ClientEmail, w.CliEmail),
		ClientPhone: preferField(w.ClientCell, w.CliCel),
		CheckoutURL: strings.TrimSpace(w.CheckoutURL),
		AmountCents: toCents(w.Amount),
		AbandonedAt: parseWireTime(w.DateAbandon),
	}
}

func (w productWire) normalize(role ProductRole) ProductRecord {
	return ProductRecord{
		ProductHash: strings.TrimSpace(w.Hash),
		Name:        strings.TrimSpace(w.Name),
		Description: strings.TrimSpace(w.Description),
		PriceCents:  toCents(w.Price),
		Role:        role,
	}
}

func normalizeCommissions(wires []saleCommissionWire) []CommissionRecord {
	if len(wires) == 0 {
		return nil
	}
	out := make([]CommissionRecord, 0, len(wires))
	for _, w := range wires {
		out = append(out, CommissionRecord{
			Type:          strings.TrimSpace(w.Type),
			AffiliateCode: strings.TrimSpace(w.AffiliateCode),
			Name:          strings.TrimSpace(w.Name),
			Email:         strings.TrimSpace(w.Email),
			ValueCents:    toCents(w.Value),
		})
	}
	return out
}

func preferField(explicit, legacy string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	return strings.TrimSpace(legacy)
}

// toCents converts a currency-unit float from the wire into minor units
// without accumulating float drift.
func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func parseWireTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(timeFormat, value); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts
	}
	return time.Time{}
}
