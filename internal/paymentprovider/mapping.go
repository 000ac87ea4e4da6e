package paymentprovider

import (
	"net/url"
	"strings"

	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

// fieldMapping имена полей провайдера для каждого канонического поля.
type fieldMapping struct {
	Fullname  string
	Email     string
	ProductID string
	TransType string
	TransID   string
	Affiliate string
}

var (
	jvzooFields = fieldMapping{
		Fullname:  "ccustname",
		Email:     "ccustemail",
		ProductID: "cproditem",
		TransType: "ctransaction",
		TransID:   "ctransreceipt",
		Affiliate: "ctransaffiliate",
	}
	clickBankFields = fieldMapping{
		Fullname:  "customer.billing.fullName",
		Email:     "customer.billing.email",
		ProductID: "lineItems.0.itemNo",
		TransType: "transactionType",
		TransID:   "receipt",
		Affiliate: "affiliate",
	}
)

func (m fieldMapping) apply(get func(string) string) models.TransactionRecord {
	return models.TransactionRecord{
		Email:     normalize(get(m.Email)),
		Fullname:  get(m.Fullname),
		Affiliate: normalize(get(m.Affiliate)),
		TransType: strings.TrimSpace(get(m.TransType)),
		TransID:   strings.TrimSpace(get(m.TransID)),
		ProductID: strings.TrimSpace(get(m.ProductID)),
	}
}

// MapJVZoo строит каноническую транзакцию из формы JVZoo.
func MapJVZoo(form url.Values) models.TransactionRecord {
	return jvzooFields.apply(form.Get)
}

// MapClickBank строит каноническую транзакцию из расшифрованного уведомления ClickBank.
func MapClickBank(fields map[string]string) models.TransactionRecord {
	return clickBankFields.apply(func(key string) string {
		return fields[key]
	})
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
