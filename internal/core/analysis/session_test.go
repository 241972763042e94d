package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/common"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/fields"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/ocr"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/policy"
)

type fakeExtractor struct {
	texts map[string]string
	fail  map[string]error
	calls []string
}

func (f *fakeExtractor) Extract(_ context.Context, doc ocr.Document) (ocr.ExtractionResult, error) {
	f.calls = append(f.calls, doc.Name)
	if err := f.fail[doc.Name]; err != nil {
		return ocr.ExtractionResult{}, err
	}
	text := f.texts[doc.Name]
	status := constants.ExtractionOK
	if strings.TrimSpace(text) == "" {
		status = constants.ExtractionNoText
	}
	return ocr.ExtractionResult{Text: text, Pages: 1, Status: status}, nil
}

func doc(name string) ocr.Document {
	return ocr.Document{Name: name, MediaType: "application/pdf", Content: []byte("%PDF-1.4")}
}

func TestEndToEndFactaPortabilityAnnotated(t *testing.T) {
	fx := &fakeExtractor{texts: map[string]string{
		"contracheque.pdf": "SERVIDOR ATIVO\nMargem disponível: R$ 500,00\n",
		"extrato.pdf":      "Contrato 778899 parcela R$ 120,00\nContrato 112233 parcela R$ 80,00\n",
	}}
	s := NewSession(fx, Options{})

	_, err := s.Ingest(context.Background(), doc("contracheque.pdf"))
	require.NoError(t, err)
	_, err = s.Ingest(context.Background(), doc("extrato.pdf"))
	require.NoError(t, err)

	r := s.Analyze(ClientProfile{Name: "Maria", Age: 30})
	require.True(t, r.Verdict.Passed)
	assert.Equal(t, policy.ApprovedMessage, r.Verdict.Reason)
	assert.Equal(t, 500.0, r.Margin)
	assert.Equal(t, 2, r.Documents)
	assert.Equal(t, s.ID().String(), r.SessionID)
	require.Len(t, r.Lenders, 11)

	facta, ok := r.Lender("Facta")
	require.True(t, ok)
	port, ok := facta.Row(constants.Portability)
	require.True(t, ok)
	assert.True(t, port.Eligible)
	assert.Equal(t, "Contract: 778899, Installment: R$ 120.00", port.Annotation)

	newLoan, _ := facta.Row(constants.NewLoan)
	assert.True(t, newLoan.Eligible)
	assert.Empty(t, newLoan.Annotation, "only portability rows are annotated")

	// the first contract is reused for every lender
	pan, _ := r.Lender("Pan")
	refin, _ := pan.Row(constants.PortabilityRefinance)
	assert.Equal(t, "Contract: 778899, Installment: R$ 120.00", refin.Annotation)
}

func TestAnalyzeRejectedHasNoLenders(t *testing.T) {
	fx := &fakeExtractor{texts: map[string]string{
		"a.pdf": "Vínculo: CLT\nMargem: 300,00\n",
	}}
	s := NewSession(fx, Options{})
	_, err := s.Ingest(context.Background(), doc("a.pdf"))
	require.NoError(t, err)

	r := s.Analyze(ClientProfile{Name: "João", Age: 95})
	assert.False(t, r.Verdict.Passed)
	assert.Equal(t, []string{policy.RuleAgeRange, policy.RuleEmploymentLink}, r.Verdict.Violations)
	assert.Empty(t, r.Lenders)
	assert.Contains(t, r.Render(), "Rejected: age out of allowed range; CLT or commissioned employment link not accepted")
}

func TestMarginIsMaxAcrossDocuments(t *testing.T) {
	fx := &fakeExtractor{texts: map[string]string{
		"a.pdf": "Margem: 100,00",
		"b.pdf": "Margem: 250,50",
	}}
	s := NewSession(fx, Options{})
	for _, n := range []string{"a.pdf", "b.pdf"} {
		_, err := s.Ingest(context.Background(), doc(n))
		require.NoError(t, err)
	}
	assert.Equal(t, 250.50, s.Totals().Margin)
	assert.Equal(t, "Margem: 100,00\nMargem: 250,50\n", s.Corpus())
}

func TestCorpusSpansDocumentsForPolicy(t *testing.T) {
	fx := &fakeExtractor{texts: map[string]string{
		"a.pdf": "Instituidor: pai",
		"b.pdf": "Data de término 10/10/2030",
	}}
	s := NewSession(fx, Options{})
	for _, n := range []string{"a.pdf", "b.pdf"} {
		_, err := s.Ingest(context.Background(), doc(n))
		require.NoError(t, err)
	}

	r := s.Analyze(ClientProfile{Name: "Ana", Age: 20})
	assert.False(t, r.Verdict.Passed)
	assert.Equal(t, []string{policy.RuleTemporaryPensioner}, r.Verdict.Violations)

	assert.True(t, s.Analyze(ClientProfile{Name: "Ana", Age: 25}).Verdict.Passed)
}

func TestIngestErrorLeavesSessionUnchanged(t *testing.T) {
	boom := errors.New("tesseract crashed")
	fx := &fakeExtractor{
		texts: map[string]string{"ok.pdf": "Margem: 90,00"},
		fail:  map[string]error{"bad.pdf": boom},
	}
	s := NewSession(fx, Options{})
	_, err := s.Ingest(context.Background(), doc("ok.pdf"))
	require.NoError(t, err)

	_, err = s.Ingest(context.Background(), doc("bad.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	assert.Len(t, s.Documents(), 1)
	assert.Equal(t, 90.0, s.Totals().Margin)
	assert.Equal(t, "Margem: 90,00\n", s.Corpus())
}

type slowExtractor struct {
	delay time.Duration
}

func (e slowExtractor) Extract(_ context.Context, _ ocr.Document) (ocr.ExtractionResult, error) {
	time.Sleep(e.delay)
	return ocr.ExtractionResult{Text: "Margem: 10,00", Pages: 1, Status: constants.ExtractionOK}, nil
}

func TestIngestDocumentLimitUnderConcurrency(t *testing.T) {
	s := NewSession(slowExtractor{delay: 20 * time.Millisecond}, Options{MaxDocuments: 1})

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Ingest(context.Background(), doc("a.pdf"))
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, s.Documents(), 1)
	assert.Equal(t, 1, s.Totals().Documents)
}

func TestIngestLimits(t *testing.T) {
	fx := &fakeExtractor{texts: map[string]string{}}
	s := NewSession(fx, Options{MaxUploadBytes: 4, MaxDocuments: 1})

	_, err := s.Ingest(context.Background(), ocr.Document{Name: "big.pdf", Content: []byte("12345")})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.Ingest(context.Background(), ocr.Document{Name: "empty.pdf"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.Ingest(context.Background(), ocr.Document{Name: "one.pdf", Content: []byte("1")})
	require.NoError(t, err)

	_, err = s.Ingest(context.Background(), ocr.Document{Name: "two.pdf", Content: []byte("1")})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	assert.Equal(t, []string{"one.pdf"}, fx.calls, "limits are checked before extraction")
}

func TestAnnotationNone(t *testing.T) {
	acc := fields.Fold(fields.Reading{Margin: 10, Contracts: []fields.Contract{{Number: "123456", Installment: 55}}})
	r := Evaluate(ClientProfile{Name: "X", Age: 40}, acc, "", nil, AnnotateNone)
	require.True(t, r.Verdict.Passed)
	for _, l := range r.Lenders {
		for _, row := range l.Rows {
			assert.Empty(t, row.Annotation, "%s %s", l.Name, row.Product)
		}
	}
}

func TestNoContractsNoAnnotation(t *testing.T) {
	r := Evaluate(ClientProfile{Name: "X", Age: 40}, fields.Accumulator{Margin: 5}, "", nil, AnnotateFirst)
	facta, _ := r.Lender("Facta")
	port, _ := facta.Row(constants.Portability)
	assert.True(t, port.Eligible)
	assert.Empty(t, port.Annotation)
}

func TestIneligiblePortabilityNotAnnotated(t *testing.T) {
	acc := fields.Accumulator{Contracts: []fields.Contract{{Number: "999999", Installment: 1}}}
	r := Evaluate(ClientProfile{Name: "X", Age: 80}, acc, "", nil, AnnotateFirst)
	require.True(t, r.Verdict.Passed)

	facta, _ := r.Lender("Facta")
	port, _ := facta.Row(constants.Portability)
	assert.False(t, port.Eligible)
	assert.Empty(t, port.Annotation)
	assert.Equal(t, "No", port.Display())
}

func TestParseAnnotationStrategy(t *testing.T) {
	s, err := ParseAnnotationStrategy("")
	require.NoError(t, err)
	assert.Equal(t, AnnotateFirst, s)

	s, err = ParseAnnotationStrategy(" NONE ")
	require.NoError(t, err)
	assert.Equal(t, AnnotateNone, s)

	_, err = ParseAnnotationStrategy("largest")
	assert.Error(t, err)
}

func TestRenderApproved(t *testing.T) {
	acc := fields.Accumulator{Margin: 500, Documents: 1, Contracts: []fields.Contract{{Number: "778899", Installment: 120}}}
	out := Evaluate(ClientProfile{Name: "Maria", Age: 30}, acc, "", nil, AnnotateFirst).Render()

	assert.Contains(t, out, "Client: Maria (age 30)")
	assert.Contains(t, out, "Available margin: R$ 500.00")
	assert.Contains(t, out, "Approved: "+policy.ApprovedMessage)
	assert.Contains(t, out, "\nDaycoval Melhor Idade\n")
	assert.Contains(t, out, "Yes (Contract: 778899, Installment: R$ 120.00)")
	assert.Equal(t, 11, strings.Count(out, "Portability:"))
}
