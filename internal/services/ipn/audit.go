package ipn

import (
	"fmt"

	"github.com/magabrotheeeer/membership-ipn/internal/paymentprovider"
)

// Comment формирует текст записи аудита.
func Comment(action string, provider paymentprovider.Provider, transID, transType, note string) string {
	return fmt.Sprintf("%s by %s, transaction id: %s, type: %s, note: %s",
		action, provider, transID, transType, note)
}
