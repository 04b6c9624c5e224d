package sync

import (
	"fmt"
	"strconv"
	"strings"

	"satu-amo-bridge/internal/amocrm"
	apperrors "satu-amo-bridge/internal/common/errors"
	"satu-amo-bridge/internal/satu"
)

// leadName is the constant name every created lead carries.
const leadName = "Заявка с satu"

// MapOrder turns one source order into a destination lead payload using
// the tenant's field mapping. Pure; the only failure is an unparsable
// price, which is recoverable per order.
func MapOrder(order satu.Order, ids amocrm.FieldIDs, pipelineID int64) (amocrm.LeadPayload, error) {
	price, err := parsePrice(order.Price)
	if err != nil {
		return amocrm.LeadPayload{}, err
	}

	return amocrm.LeadPayload{
		Name:  leadName,
		Price: price,
		CustomFieldsValues: []amocrm.CustomFieldValue{
			{
				FieldID: ids.Address,
				Values:  []amocrm.FieldValue{{Value: order.DeliveryAddress}},
			},
			{
				FieldID: ids.DeliveryType,
				Values:  []amocrm.FieldValue{{Value: optionName(order.DeliveryOption)}},
			},
			{
				FieldID: ids.Payment,
				Values:  []amocrm.FieldValue{{Value: optionName(order.PaymentOption)}},
			},
			{
				FieldID: ids.Product,
				Values:  []amocrm.FieldValue{{Value: productNames(order.Products)}},
			},
		},
		Embedded: amocrm.LeadEmbedded{
			Contacts: []amocrm.Contact{
				{
					FirstName: order.ClientFirstName + " " + order.ClientLastName,
					CustomFieldsValues: []amocrm.CustomFieldValue{
						{
							FieldCode: "EMAIL",
							Values:    []amocrm.FieldValue{{Value: order.Email, EnumCode: "WORK"}},
						},
						{
							FieldCode: "PHONE",
							Values:    []amocrm.FieldValue{{Value: order.Phone, EnumCode: "WORK"}},
						},
					},
				},
			},
		},
		PipelineID: pipelineID,
	}, nil
}

// parsePrice strips everything but ASCII digits and parses the rest.
func parsePrice(raw string) (int, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, apperrors.NewMalformedOrderError(fmt.Sprintf("price %q contains no digits", raw))
	}

	price, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, apperrors.NewMalformedOrderError(fmt.Sprintf("price %q is not a valid integer: %v", raw, err))
	}
	return price, nil
}

func optionName(o *satu.Option) string {
	if o == nil {
		return ""
	}
	return o.Name
}

func productNames(products []satu.Product) string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return strings.Join(names, "\n")
}
