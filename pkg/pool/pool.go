// Package pool models RHSM entitlement pools and parses them out of
// "subscription-manager list --consumed" output.
//
// # Schema
//
// The attributes of a pool are described by a static table (Schema) mapping
// each attribute name to the label subscription-manager prints, its kind and
// whether it is required when a pool is declared. Both the parser and the
// desired-state constructor (NewFromAttributes) are driven by this table.
//
// # Parsing
//
//	pools, skipped := pool.Parse(out)
//	for _, perr := range skipped {
//	    slog.Warn("skipping malformed pool", slog.String("error", perr.Error()))
//	}
//
// Blocks are returned in input order, one per unique Pool ID. A block that
// cannot be fully converted is never returned partially.
package pool

import (
	"regexp"
)

// Pool is one consumed (or declared) entitlement pool.
type Pool struct {
	ID               string `json:"id" yaml:"id"`
	SubscriptionName string `json:"subscription_name,omitempty" yaml:"subscription_name,omitempty"`
	Provides         string `json:"provides,omitempty" yaml:"provides,omitempty"`
	SKU              string `json:"sku,omitempty" yaml:"sku,omitempty"`
	Contract         string `json:"contract,omitempty" yaml:"contract,omitempty"`
	Account          string `json:"account,omitempty" yaml:"account,omitempty"`
	Serial           string `json:"serial,omitempty" yaml:"serial,omitempty"`
	Active           bool   `json:"active" yaml:"active"`
	QuantityUsed     int    `json:"quantity_used" yaml:"quantity_used"`
	ServiceLevel     string `json:"service_level,omitempty" yaml:"service_level,omitempty"`
	ServiceType      string `json:"service_type,omitempty" yaml:"service_type,omitempty"`
	StatusDetails    string `json:"status_details,omitempty" yaml:"status_details,omitempty"`
	SubscriptionType string `json:"subscription_type,omitempty" yaml:"subscription_type,omitempty"`
	Starts           Date   `json:"starts,omitzero" yaml:"starts,omitempty"`
	Ends             Date   `json:"ends,omitzero" yaml:"ends,omitempty"`
	SystemType       string `json:"system_type,omitempty" yaml:"system_type,omitempty"`
}

// Kind is the semantic type of an attribute.
type Kind int

const (
	KindString Kind = iota
	KindID
	KindBool
	KindInt
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Field describes one pool attribute.
type Field struct {
	// Name is the attribute name used in manifests and output.
	Name string
	// Label is the label subscription-manager prints.
	Label string
	Kind  Kind
	// Required attributes must be present when a pool is declared.
	Required bool
	Doc      string
}

// LeadingLabel opens every pool block in subscription-manager output.
const LeadingLabel = "Subscription Name"

// Schema lists every pool attribute in output order.
var Schema = []Field{
	{Name: "subscription_name", Label: LeadingLabel, Kind: KindString, Doc: "The name of the subscription."},
	{Name: "provides", Label: "Provides", Kind: KindString, Doc: "Products provided by the subscription."},
	{Name: "sku", Label: "SKU", Kind: KindString, Doc: "Stock keeping unit of the subscription."},
	{Name: "contract", Label: "Contract", Kind: KindString, Doc: "Contract the subscription belongs to."},
	{Name: "account", Label: "Account", Kind: KindString, Doc: "Account that owns the subscription."},
	{Name: "serial", Label: "Serial", Kind: KindString, Doc: "Serial of the consumed entitlement certificate; used to remove it."},
	{Name: "id", Label: "Pool ID", Kind: KindID, Required: true, Doc: "Hexadecimal pool identifier; used to attach it."},
	{Name: "active", Label: "Active", Kind: KindBool, Doc: "Whether the subscription is active."},
	{Name: "quantity_used", Label: "Quantity Used", Kind: KindInt, Doc: "Number of entitlements consumed from the pool."},
	{Name: "service_level", Label: "Service Level", Kind: KindString, Doc: "Support level, e.g. STANDARD or PREMIUM."},
	{Name: "service_type", Label: "Service Type", Kind: KindString, Doc: "Support type, e.g. L1-L3."},
	{Name: "status_details", Label: "Status Details", Kind: KindString, Doc: "Entitlement status reported by the server."},
	{Name: "subscription_type", Label: "Subscription Type", Kind: KindString, Doc: "Stacking or instance based type of the subscription."},
	{Name: "starts", Label: "Starts", Kind: KindDate, Doc: "First day the subscription is valid."},
	{Name: "ends", Label: "Ends", Kind: KindDate, Doc: "Last day the subscription is valid."},
	{Name: "system_type", Label: "System Type", Kind: KindString, Doc: "Physical or Virtual."},
}

var (
	idPattern = regexp.MustCompile(`^[A-Fa-f0-9]+$`)

	byLabel = indexBy(func(f Field) string { return f.Label })
	byName  = indexBy(func(f Field) string { return f.Name })
)

func indexBy(key func(Field) string) map[string]Field {
	m := make(map[string]Field, len(Schema))
	for _, f := range Schema {
		m[key(f)] = f
	}
	return m
}

// FieldByName returns the schema entry for an attribute name.
func FieldByName(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// FieldByLabel returns the schema entry for an output label.
func FieldByLabel(label string) (Field, bool) {
	f, ok := byLabel[label]
	return f, ok
}

// AttributeNames returns every attribute name in schema order.
func AttributeNames() []string {
	names := make([]string, len(Schema))
	for i, f := range Schema {
		names[i] = f.Name
	}
	return names
}

// Attribute returns the typed value of the named attribute.
func (p *Pool) Attribute(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "subscription_name":
		return p.SubscriptionName, true
	case "provides":
		return p.Provides, true
	case "sku":
		return p.SKU, true
	case "contract":
		return p.Contract, true
	case "account":
		return p.Account, true
	case "serial":
		return p.Serial, true
	case "active":
		return p.Active, true
	case "quantity_used":
		return p.QuantityUsed, true
	case "service_level":
		return p.ServiceLevel, true
	case "service_type":
		return p.ServiceType, true
	case "status_details":
		return p.StatusDetails, true
	case "subscription_type":
		return p.SubscriptionType, true
	case "starts":
		return p.Starts, true
	case "ends":
		return p.Ends, true
	case "system_type":
		return p.SystemType, true
	}
	return nil, false
}

// set assigns an already coerced value. The value's dynamic type must match
// the field kind.
func (p *Pool) set(name string, v any) {
	switch name {
	case "id":
		p.ID = v.(string)
	case "subscription_name":
		p.SubscriptionName = v.(string)
	case "provides":
		p.Provides = v.(string)
	case "sku":
		p.SKU = v.(string)
	case "contract":
		p.Contract = v.(string)
	case "account":
		p.Account = v.(string)
	case "serial":
		p.Serial = v.(string)
	case "active":
		p.Active = v.(bool)
	case "quantity_used":
		p.QuantityUsed = v.(int)
	case "service_level":
		p.ServiceLevel = v.(string)
	case "service_type":
		p.ServiceType = v.(string)
	case "status_details":
		p.StatusDetails = v.(string)
	case "subscription_type":
		p.SubscriptionType = v.(string)
	case "starts":
		p.Starts = v.(Date)
	case "ends":
		p.Ends = v.(Date)
	case "system_type":
		p.SystemType = v.(string)
	}
}
