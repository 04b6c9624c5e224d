package amocrm

// Account identifies one destination CRM account.
type Account struct {
	BaseURL string
	Token   string
}

// FieldIDs holds the four lead custom fields provisioned for a tenant.
type FieldIDs struct {
	Address      int64
	DeliveryType int64
	Payment      int64
	Product      int64
}

// FieldValue is one value entry inside a custom field.
type FieldValue struct {
	Value    string `json:"value"`
	EnumCode string `json:"enum_code,omitempty"`
}

// CustomFieldValue addresses a field either by numeric id (lead fields)
// or by well-known code (contact EMAIL/PHONE fields).
type CustomFieldValue struct {
	FieldID   int64        `json:"field_id,omitempty"`
	FieldCode string       `json:"field_code,omitempty"`
	Values    []FieldValue `json:"values"`
}

// Contact is the embedded contact created alongside a lead.
type Contact struct {
	FirstName          string             `json:"first_name"`
	CustomFieldsValues []CustomFieldValue `json:"custom_fields_values"`
}

type LeadEmbedded struct {
	Contacts []Contact `json:"contacts"`
}

// LeadPayload is one entry of the bulk complex-lead creation request.
type LeadPayload struct {
	Name               string             `json:"name"`
	Price              int                `json:"price"`
	CustomFieldsValues []CustomFieldValue `json:"custom_fields_values"`
	Embedded           LeadEmbedded       `json:"_embedded"`
	PipelineID         int64              `json:"pipeline_id"`
}

type fieldDefinition struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsAPIOnly bool   `json:"is_api_only"`
}

type customFieldsResponse struct {
	Embedded struct {
		CustomFields []struct {
			ID int64 `json:"id"`
		} `json:"custom_fields"`
	} `json:"_embedded"`
}
