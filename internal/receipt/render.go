package receipt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matthieukhl/receipter/internal/models"
)

// Currency is the suffix printed after every amount.
const Currency = "Ft"

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04"
	generatedLayout = "2006-01-02 15:04:05"
)

var ErrTemplateFieldMissing = errors.New("receipt field missing")

// Render lays out data as the delivery receipt text. The section order,
// banners and separators match the receipts printed so far and must not
// drift; only the substituted values vary.
func Render(data models.ReceiptData) (string, error) {
	if err := validate(data); err != nil {
		return "", err
	}

	var b strings.Builder
	w := func(line string) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	w("")
	w("========= Pizzakaravan =================")
	w("")
	w("    HÁZHOZSZÁLLÍTÁS NYUGTA")
	w("      www.pizzakaravan.hu")
	w("---------------------------------------")
	w("Sorszam: " + strconv.Itoa(data.Number) +
		"  Datum: " + data.OrderedAt.Format(dateLayout) + " " + data.OrderedAt.Format(timeLayout))
	w("---------------------------------------")
	w("Vasarlo: " + data.Customer.Name)
	w("Cim: " + data.Customer.Address)
	w("Tel.: " + data.Customer.Phone)
	w("--------------------------------------")
	w("Termekek:")
	w(ItemLines(data.Lines))
	w("--------------------------------------")
	w("Teljes osszeg: " + amount(data.Totals.Subtotal) + "  ")
	w("Kedvezmeny: " + amount(data.Totals.DiscountAmount))
	w("---------------------------------------")
	w("   |Vegosszeg: " + amount(data.Totals.GrandTotal) + "|")
	w("-------------------------------------")
	w("     Koszonjuk a rendeleset!")
	w("       www.pizzakaravan.hu")
	w("-------------------------------------")
	w("Nyugta: " + data.GeneratedAt.Format(generatedLayout))
	w("====================================")

	return b.String(), nil
}

// ItemLines renders one "<name> - <price> Ft" line per order line, in the
// order the products were added.
func ItemLines(lines []models.OrderLine) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Name+" - "+amount(l.Price))
	}
	return strings.Join(out, "\n")
}

func amount(v int64) string {
	return strconv.FormatInt(v, 10) + " " + Currency
}

func validate(data models.ReceiptData) error {
	switch {
	case data.Number <= 0:
		return fmt.Errorf("%w: sequence number", ErrTemplateFieldMissing)
	case data.OrderedAt.IsZero():
		return fmt.Errorf("%w: order date", ErrTemplateFieldMissing)
	case data.GeneratedAt.IsZero():
		return fmt.Errorf("%w: generated timestamp", ErrTemplateFieldMissing)
	}
	return nil
}
