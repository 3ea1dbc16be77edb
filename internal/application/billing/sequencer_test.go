package billing_test

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmbaye/gestock-api/internal/application/billing"
	"github.com/kmbaye/gestock-api/internal/domain"
)

// fakeCounterRepo emula el contador atómico por (empresa, año, mes): el mutex
// juega el papel del bloqueo de fila de la base de datos.
type fakeCounterRepo struct {
	mu       sync.Mutex
	counters map[string]int
}

func newFakeCounterRepo() *fakeCounterRepo {
	return &fakeCounterRepo{counters: make(map[string]int)}
}

func (f *fakeCounterRepo) Next(companyID string, year, month int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s|%04d|%02d", companyID, year, month)
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeCounterRepo) set(companyID string, year, month, value int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[fmt.Sprintf("%s|%04d|%02d", companyID, year, month)] = value
}

func TestSequencer_Formato(t *testing.T) {
	seq := billing.NewSequencer(newFakeCounterRepo(), "FAC")
	at := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 7; i++ {
		got, err := seq.NextInvoiceNumber("company-a", at)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("FAC2025010%03d", i), got)
	}

	// El séptimo número del mes es exactamente FAC2025010007.
	counters := newFakeCounterRepo()
	counters.set("company-a", 2025, 1, 6)
	seq = billing.NewSequencer(counters, "FAC")
	got, err := seq.NextInvoiceNumber("company-a", at)
	require.NoError(t, err)
	assert.Equal(t, "FAC2025010007", got)
}

func TestSequencer_PrefijoVacioUsaFAC(t *testing.T) {
	seq := billing.NewSequencer(newFakeCounterRepo(), "")
	got, err := seq.NextInvoiceNumber("company-a", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "FAC2025030001", got)
}

// Llamadas concurrentes sobre la misma (empresa, mes) producen números
// contiguos sin huecos ni duplicados.
func TestSequencer_ConcurrenciaContigua(t *testing.T) {
	const workers = 50
	counters := newFakeCounterRepo()
	seq := billing.NewSequencer(counters, "FAC")
	at := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	type result struct {
		number string
		err    error
	}
	results := make(chan result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.NextInvoiceNumber("company-a", at)
			results <- result{number: n, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var numbers []string
	for r := range results {
		require.NoError(t, r.err)
		numbers = append(numbers, r.number)
	}
	sort.Strings(numbers)

	require.Len(t, numbers, workers)
	for i, n := range numbers {
		assert.Equal(t, fmt.Sprintf("FAC202506%04d", i+1), n, "el consecutivo debe ser contiguo")
	}
}

// Cada mes arranca su propio consecutivo en 1; el contador del mes anterior
// no se toca.
func TestSequencer_ReinicioPorMes(t *testing.T) {
	seq := billing.NewSequencer(newFakeCounterRepo(), "FAC")

	jan, err := seq.NextInvoiceNumber("company-a", time.Date(2025, time.January, 31, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	feb, err := seq.NextInvoiceNumber("company-a", time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "FAC2025010001", jan)
	assert.Equal(t, "FAC2025020001", feb)
}

func TestSequencer_EmpresasIndependientes(t *testing.T) {
	seq := billing.NewSequencer(newFakeCounterRepo(), "FAC")
	at := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)

	a1, err := seq.NextInvoiceNumber("company-a", at)
	require.NoError(t, err)
	a2, err := seq.NextInvoiceNumber("company-a", at)
	require.NoError(t, err)
	b1, err := seq.NextInvoiceNumber("company-b", at)
	require.NoError(t, err)

	assert.Equal(t, "FAC2025040001", a1)
	assert.Equal(t, "FAC2025040002", a2)
	assert.Equal(t, "FAC2025040001", b1, "cada empresa lleva su propio consecutivo")
}

// Al agotarse los 4 dígitos el secuenciador falla explícito; nunca envuelve
// el desborde en silencio ni reutiliza números.
func TestSequencer_ConsecutivoAgotado(t *testing.T) {
	counters := newFakeCounterRepo()
	counters.set("company-a", 2025, 12, 9998)
	seq := billing.NewSequencer(counters, "FAC")
	at := time.Date(2025, time.December, 24, 0, 0, 0, 0, time.UTC)

	got, err := seq.NextInvoiceNumber("company-a", at)
	require.NoError(t, err)
	assert.Equal(t, "FAC2025129999", got, "el 9999 todavía es válido")

	_, err = seq.NextInvoiceNumber("company-a", at)
	var exhausted *domain.SequenceExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "company-a", exhausted.CompanyID)
	assert.Equal(t, 2025, exhausted.Year)
	assert.Equal(t, 12, exhausted.Month)
	assert.Equal(t, 10000, exhausted.Value)
}
