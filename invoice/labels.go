package invoice

import (
	"errors"
	"fmt"

	"github.com/ByLCY/facture/binding"
)

// Labels 保存文档中所有固定文字。模板中的 ${key} 由 binding.Interpolate 填充。
//
// 可用占位符：Title 为 ${number}；TotalTVA 为 ${rate}；Delivery 为 ${company}；Amount 为 ${amount}。
type Labels struct {
	Title    string `mapstructure:"title"`
	TotalHT  string `mapstructure:"total_ht"`
	TotalTVA string `mapstructure:"total_tva"`
	Delivery string `mapstructure:"delivery"`
	TotalTTC string `mapstructure:"total_ttc"`
	Amount   string `mapstructure:"amount"`

	Siret   string `mapstructure:"siret"`
	TVA     string `mapstructure:"tva"`
	RCS     string `mapstructure:"rcs"`
	NIF     string `mapstructure:"nif"`
	NIS     string `mapstructure:"nis"`
	RC      string `mapstructure:"rc"`
	Address string `mapstructure:"address"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
	RIB     string `mapstructure:"rib"`
}

// DefaultLabels 返回法语默认文字。
func DefaultLabels() Labels {
	return Labels{
		Title:    "Facture N°: ${number}",
		TotalHT:  "Total HT:",
		TotalTVA: "TVA ${rate}:",
		Delivery: "Livraison (${company}):",
		TotalTTC: "Total a payer:",
		Amount:   "${amount}€",

		Siret:   "Siret:",
		TVA:     "N° TVA:",
		RCS:     "RCS:",
		NIF:     "NIF:",
		NIS:     "NIS:",
		RC:      "RC:",
		Address: "Adresse:",
		Phone:   "Téléphone:",
		Email:   "Email:",
		RIB:     "RIB:",
	}
}

// withDefaults 用默认值填充空字段。
func (l Labels) withDefaults() Labels {
	d := DefaultLabels()
	for _, f := range []struct{ dst, def *string }{
		{&l.Title, &d.Title}, {&l.TotalHT, &d.TotalHT}, {&l.TotalTVA, &d.TotalTVA},
		{&l.Delivery, &d.Delivery}, {&l.TotalTTC, &d.TotalTTC}, {&l.Amount, &d.Amount},
		{&l.Siret, &d.Siret}, {&l.TVA, &d.TVA}, {&l.RCS, &d.RCS}, {&l.NIF, &d.NIF},
		{&l.NIS, &d.NIS}, {&l.RC, &d.RC}, {&l.Address, &d.Address}, {&l.Phone, &d.Phone},
		{&l.Email, &d.Email}, {&l.RIB, &d.RIB},
	} {
		if *f.dst == "" {
			*f.dst = *f.def
		}
	}
	return l
}

// Validate 检查模板只引用各自可用的占位符。
func (l Labels) Validate() error {
	var errs []error
	check := func(name, tmpl string, keys ...string) {
		data := make(map[string]string, len(keys))
		for _, k := range keys {
			data[k] = ""
		}
		if unknown := binding.Missing(tmpl, data); len(unknown) > 0 {
			errs = append(errs, fmt.Errorf("labels.%s: 未知占位符 %v", name, unknown))
		}
	}
	check("title", l.Title, "number")
	check("totalTVA", l.TotalTVA, "rate")
	check("delivery", l.Delivery, "company")
	check("amount", l.Amount, "amount")
	for _, f := range []struct{ name, tmpl string }{
		{"totalHT", l.TotalHT}, {"totalTTC", l.TotalTTC}, {"siret", l.Siret}, {"tva", l.TVA},
		{"rcs", l.RCS}, {"nif", l.NIF}, {"nis", l.NIS}, {"rc", l.RC}, {"address", l.Address},
		{"phone", l.Phone}, {"email", l.Email}, {"rib", l.RIB},
	} {
		check(f.name, f.tmpl)
	}
	return errors.Join(errs...)
}

func (l Labels) title(number string) string {
	return binding.Interpolate(l.Title, map[string]string{"number": number})
}

func (l Labels) tax(rate string) string {
	return binding.Interpolate(l.TotalTVA, map[string]string{"rate": rate})
}

func (l Labels) delivery(company string) string {
	return binding.Interpolate(l.Delivery, map[string]string{"company": company})
}

func (l Labels) amount(v string) string {
	return binding.Interpolate(l.Amount, map[string]string{"amount": v})
}
