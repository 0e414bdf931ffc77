package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"number": "22/123",
		"delivery": map[string]string{
			"company": "Courier",
		},
		"items": []any{map[string]any{"name": "Product1"}},
		"rates": []string{"20%", "5.5%"},
	}

	assert.Equal(t, "Facture N°: 22/123", Interpolate("Facture N°: ${number}", data))
	assert.Equal(t, "Livraison (Courier):", Interpolate("Livraison (${ delivery.company }):", data))
	assert.Equal(t, "Product1", Interpolate("${items[0].name}", data))
	assert.Equal(t, "TVA 5.5%:", Interpolate("TVA ${rates[1]}:", data))
	assert.Equal(t, "${missing} ${items[3].name}", Interpolate("${missing} ${items[3].name}", data))
	assert.Equal(t, "${number}", Interpolate("${number}", nil))
}

func TestInterpolateEmptyValue(t *testing.T) {
	assert.Equal(t, "Livraison ():", Interpolate("Livraison (${company}):", map[string]string{"company": ""}))
}

func TestMissing(t *testing.T) {
	data := map[string]string{"rate": "20%"}
	assert.Equal(t, []string{"company"}, Missing("TVA ${rate} ${company} ${company}", data))
	assert.Empty(t, Missing("TVA ${rate}:", data))
	assert.Equal(t, []string{"rate"}, Missing("${rate}", nil))
}
