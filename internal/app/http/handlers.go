package apphttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rcrowley/go-metrics"

	"github.com/kawabatas/payroll-batch/internal/app/usecase"
	"github.com/kawabatas/payroll-batch/internal/infra/datastore"
	appmetrics "github.com/kawabatas/payroll-batch/internal/infra/platform/metrics"
)

const maxBodyBytes = 1 << 20

// Register wires API endpoints onto the provided mux.
func Register(mux *http.ServeMux, ds datastore.DataStore, batches *usecase.BatchService, entries *usecase.EntryService, registry metrics.Registry) {
	mux.HandleFunc("GET /healthz", healthz(ds)) // DB接続も確認するため healthz
	mux.HandleFunc("GET /__metrics", appmetrics.Handler(registry))

	mux.HandleFunc("GET /api/batches", listBatches(batches))
	mux.HandleFunc("POST /api/batches", createBatch(batches))
	mux.HandleFunc("GET /api/batches/__count", countBatches(batches))
	mux.HandleFunc("GET /api/batches/{id}", getBatch(batches))
	mux.HandleFunc("PUT /api/batches/{id}", updateBatch(batches))
	mux.HandleFunc("DELETE /api/batches/{id}", deleteBatch(batches))
	mux.HandleFunc("GET /api/batches/{id}/summary", batchSummary(batches))

	mux.HandleFunc("GET /api/batches/{id}/entries", listEntries(entries))
	mux.HandleFunc("POST /api/batches/{id}/entries", addEntry(entries))
	// エントリ単体は batchId を持たない URL で扱う（クライアント互換）
	mux.HandleFunc("PUT /api/batches/entries/{entryId}", updateEntry(entries))
	mux.HandleFunc("DELETE /api/batches/entries/{entryId}", deleteEntry(entries))
}

func healthz(ds datastore.DataStore) http.HandlerFunc {
	type resp struct {
		Status string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ds.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, resp{Status: "ng"})
			return
		}
		writeJSON(w, http.StatusOK, resp{Status: "ok"})
	}
}

// decodeBody reads a JSON body into dst. 失敗時は ErrInvalidInput を包んで返す。
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func listBatches(svc *usecase.BatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func countBatches(svc *usecase.BatchService) http.HandlerFunc {
	type resp struct {
		Count int64 `json:"count"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.Count(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp{Count: n})
	}
}

func createBatch(svc *usecase.BatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in usecase.BatchInput
		if err := decodeBody(w, r, &in); err != nil {
			writeServiceError(w, r, err)
			return
		}
		b, err := svc.Create(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/batches/"+b.ID)
		writeJSON(w, http.StatusCreated, b)
	}
}

func getBatch(svc *usecase.BatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func updateBatch(svc *usecase.BatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p usecase.BatchPatch
		if err := decodeBody(w, r, &p); err != nil {
			writeServiceError(w, r, err)
			return
		}
		b, err := svc.Update(r.Context(), r.PathValue("id"), p)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func deleteBatch(svc *usecase.BatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), r.PathValue("id")); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func batchSummary(svc *usecase.BatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func listEntries(svc *usecase.EntryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListByBatch(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func addEntry(svc *usecase.EntryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in usecase.EntryInput
		if err := decodeBody(w, r, &in); err != nil {
			writeServiceError(w, r, err)
			return
		}
		e, err := svc.Add(r.Context(), r.PathValue("id"), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func updateEntry(svc *usecase.EntryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in usecase.EntryInput
		if err := decodeBody(w, r, &in); err != nil {
			writeServiceError(w, r, err)
			return
		}
		e, err := svc.Update(r.Context(), r.PathValue("entryId"), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func deleteEntry(svc *usecase.EntryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), r.PathValue("entryId")); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
