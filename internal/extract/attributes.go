// Package extract pulls typed billing fields out of unstructured email
// text. A generic label-based pass produces the baseline fields; a
// provider-family pass (water, gas, electricity) then overrides or clears
// fields the generic heuristics get wrong for that provider's layout.
package extract

// Attributes maps field names to extracted string values. Values keep the
// separators exactly as written in the email ("12.013", never "12013").
// A missing field is simply absent from the map.
type Attributes map[string]string

// Baseline fields the generic pass can produce for any provider.
const (
	FieldFolio              = "folio"
	FieldBillingPeriodStart = "billing_period_start"
	FieldBillingPeriodEnd   = "billing_period_end"
	FieldTotalAmount        = "total_amount"
	FieldCustomerNumber     = "customer_number"
	FieldAddress            = "address"
	FieldDueDate            = "due_date"
	FieldRUT                = "rut"
	FieldCompany            = "company"
)

// Provider-family fields.
const (
	FieldConsumptionM3          = "consumption_m3"
	FieldMeterReading           = "meter_reading"
	FieldMeterNumber            = "meter_number"
	FieldMetropuntos            = "metropuntos"
	FieldConsumptionKWh         = "consumption_kwh"
	FieldContractedPowerKW      = "contracted_power_kw"
	FieldConsumptionType        = "consumption_type"
	FieldIssueDate              = "issue_date"
	FieldNextBillingPeriodStart = "next_billing_period_start"
	FieldNextBillingPeriodEnd   = "next_billing_period_end"
)

// overlay is the output of a provider-family pass: fields that override the
// generic result, and fields the provider's layout is known to defeat,
// which must be removed from the final result entirely. Clearing is a
// correction signal, not a no-op: the generic value for that key was wrong.
type overlay struct {
	set   map[string]string
	clear []string
}

func newOverlay() overlay {
	return overlay{set: make(map[string]string)}
}
