// handlers/import.go
package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"p9e.in/tms/middleware"
	"p9e.in/tms/pkg/schema"
)

const maxImportBytes = 20 << 20

// DownloadTemplate serves the import template for a table, CSV by
// default, XLSX with ?format=xlsx.
// GET /api/v1/import/{table}/template
func DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	if !schema.Known(table) {
		http.Error(w, "unknown table", http.StatusNotFound)
		return
	}
	if r.URL.Query().Get("format") == "xlsx" {
		data, err := ImporterSvc.TemplateXLSX(table)
		if err != nil {
			fail(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_template.xlsx", table))
		w.Write(data)
		return
	}
	data, err := ImporterSvc.TemplateCSV(table)
	if err != nil {
		fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_template.csv", table))
	w.Write(data)
}

// ImportTable ingests an uploaded CSV for the table. Accepts either a
// multipart "file" field or a raw CSV body.
// POST /api/v1/import/{table}
func ImportTable(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	table := mux.Vars(r)["table"]

	var data []byte
	if err := r.ParseMultipartForm(maxImportBytes); err == nil {
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			http.Error(w, "multipart form needs a file field", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, ferr = io.ReadAll(io.LimitReader(file, maxImportBytes))
		if ferr != nil {
			fail(w, ferr)
			return
		}
	} else {
		var rerr error
		data, rerr = io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
		if rerr != nil {
			fail(w, rerr)
			return
		}
	}

	res, err := ImporterSvc.ImportCSV(rc, table, data)
	if err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "import", table, fmt.Sprintf("%d imported, %d dropped", res.Imported, res.Dropped))
	writeJSON(w, http.StatusOK, res)
}

// UploadFile stores an arbitrary attachment and returns its public URL.
// POST /api/v1/files
func UploadFile(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		http.Error(w, "multipart form required", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		fail(w, err)
		return
	}
	url := Repo.UploadFile("attachments", header.Filename, data)
	if url == "" {
		http.Error(w, "upload failed: "+Repo.LastError(), http.StatusBadGateway)
		return
	}
	AuditSvc.LogAction(rc, "upload_file", header.Filename, "")
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
