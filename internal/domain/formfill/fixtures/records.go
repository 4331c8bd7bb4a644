package fixtures

import (
	"github.com/brianvoe/gofakeit/v6"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill"
)

// RecordGenerator generates realistic letter records using gofakeit.
type RecordGenerator struct {
	faker *gofakeit.Faker
}

// NewRecordGenerator creates a new generator with a random seed.
func NewRecordGenerator() *RecordGenerator {
	return &RecordGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewRecordGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewRecordGeneratorWithSeed(seed int64) *RecordGenerator {
	return &RecordGenerator{
		faker: gofakeit.New(seed),
	}
}

// Record returns a record with all twelve fields populated.
func (g *RecordGenerator) Record() formfill.Record {
	client := g.faker.Name()
	return formfill.Record{
		formfill.FieldDate:             g.faker.Date().Format("January 2, 2006"),
		formfill.FieldRecipientName:    g.faker.Name(),
		formfill.FieldRecipientAddress: g.faker.Address().Address,
		formfill.FieldCaseNumber:       g.faker.Numerify("##-CV-#####"),
		formfill.FieldClientName:       client,
		formfill.FieldClientNameInline: client,
		formfill.FieldAttorneyName:     g.faker.Name(),
		formfill.FieldBarNumber:        g.faker.Numerify("######"),
		formfill.FieldLawFirm:          g.faker.Company() + " LLP",
		formfill.FieldAttorneyAddress:  g.faker.Address().Address,
		formfill.FieldPhone:            g.faker.Numerify("(###) ###-####"),
		formfill.FieldEmail:            g.faker.Email(),
	}
}
