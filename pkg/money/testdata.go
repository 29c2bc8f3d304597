package money

import (
	"bytes"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic bank statement data using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// ============================================================================
// Transaction Generation
// ============================================================================

// TestTransaction is one generated statement line. Category is the code the
// built-in keyword rules are expected to assign.
type TestTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
}

type merchant struct {
	description string
	category    string
	minAmount   float64
	maxAmount   float64
}

var merchants = []merchant{
	{"COMPRA PINGO DOCE LISBOA", "GROCERIES", 8, 120},
	{"CONTINENTE MODELO PORTO", "GROCERIES", 10, 150},
	{"LIDL SAINT DENIS", "GROCERIES", 5, 80},
	{"STARBUCKS COFFEE 0421", "FOOD_DRINK", 3, 12},
	{"UBER EATS AMSTERDAM", "FOOD_DRINK", 9, 45},
	{"UBER BV TRIP HELP.UBER", "TRANSPORT", 5, 35},
	{"COMBOIOS DE PORTUGAL", "TRANSPORT", 2, 40},
	{"EDP COMERCIAL DD", "UTILITIES", 40, 120},
	{"VODAFONE PORTUGAL", "UTILITIES", 20, 60},
	{"AMAZON MKTPLACE EU", "SHOPPING", 10, 200},
	{"IKEA ALFRAGIDE", "SHOPPING", 15, 400},
	{"NETFLIX.COM AMSTERDAM", "SUBSCRIPTIONS", 7.99, 17.99},
	{"SPOTIFY P1C2D3", "SUBSCRIPTIONS", 6.99, 16.99},
	{"FARMACIA CENTRAL", "HEALTH", 3, 60},
	{"COMISSAO MANUTENCAO CONTA", "FINANCE", 2, 8},
	{"LOYER APPARTEMENT", "HOUSING", 600, 1200},
}

const salaryDescription = "SALARIO EMPRESA LDA"

// Expense generates one random card or debit payment on date.
func (g *TestDataGenerator) Expense(date time.Time) TestTransaction {
	m := merchants[g.faker.Number(0, len(merchants)-1)]
	return TestTransaction{
		Date:        date,
		Description: m.description,
		Amount:      g.amount(m.minAmount, m.maxAmount).Neg(),
		Category:    m.category,
	}
}

// Salary generates a monthly salary credit on date.
func (g *TestDataGenerator) Salary(date time.Time) TestTransaction {
	return TestTransaction{
		Date:        date,
		Description: salaryDescription,
		Amount:      g.amount(1800, 3500),
		Category:    "INCOME",
	}
}

// Statement generates count transactions, one per day from start, with a
// salary on the first day and every thirtieth day after it.
func (g *TestDataGenerator) Statement(start time.Time, count int) []TestTransaction {
	txs := make([]TestTransaction, 0, count)
	for i := 0; i < count; i++ {
		date := start.AddDate(0, 0, i)
		if i%30 == 0 {
			txs = append(txs, g.Salary(date))
			continue
		}
		txs = append(txs, g.Expense(date))
	}
	return txs
}

// Description returns a random merchant description.
func (g *TestDataGenerator) Description() string {
	return merchants[g.faker.Number(0, len(merchants)-1)].description
}

func (g *TestDataGenerator) amount(minAmount, maxAmount float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(g.faker.Float64Range(minAmount, maxAmount)))
}

// ============================================================================
// Statement Rendering
// ============================================================================

// StatementStyle describes the layout quirks of a bank export.
type StatementStyle struct {
	Delimiter    rune
	DateLayout   string
	DecimalComma bool
	// SplitAmounts writes debits and credits in two columns. Debits keep
	// their minus sign unless UnsignedDebits is set.
	SplitAmounts   bool
	UnsignedDebits bool
	// Preamble lines are written before the header, as banks do with
	// account details.
	Preamble []string
}

// PortugueseStyle is a typical semicolon export with decimal commas.
var PortugueseStyle = StatementStyle{
	Delimiter:    ';',
	DateLayout:   "02-01-2006",
	DecimalComma: true,
	SplitAmounts: true,
	Preamble:     []string{"Consultar saldos e movimentos", "Conta;0001.2345.6789", ""},
}

// RenderStatement writes txs as a delimited bank export.
func RenderStatement(txs []TestTransaction, style StatementStyle) []byte {
	sep := string(style.Delimiter)
	if style.Delimiter == 0 {
		sep = ","
	}
	layout := style.DateLayout
	if layout == "" {
		layout = "2006-01-02"
	}

	var buf bytes.Buffer
	for _, line := range style.Preamble {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	header := []string{"Data", "Descricao", "Montante"}
	if style.SplitAmounts {
		header = []string{"Data", "Descricao", "Debito", "Credito"}
	}
	buf.WriteString(strings.Join(header, sep))
	buf.WriteByte('\n')

	format := func(d decimal.Decimal) string {
		s := d.StringFixed(2)
		if style.DecimalComma {
			s = strings.Replace(s, ".", ",", 1)
		}
		return s
	}

	for _, tx := range txs {
		fields := []string{tx.Date.Format(layout), tx.Description}
		switch {
		case !style.SplitAmounts:
			fields = append(fields, format(tx.Amount))
		case tx.Amount.IsNegative() && style.UnsignedDebits:
			fields = append(fields, format(tx.Amount.Abs()), "")
		case tx.Amount.IsNegative():
			fields = append(fields, format(tx.Amount), "")
		default:
			fields = append(fields, "", format(tx.Amount))
		}
		buf.WriteString(strings.Join(fields, sep))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
