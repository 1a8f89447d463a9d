// Command tax-registry is a standalone stand-in for the national tax
// registry, used in local development and end-to-end tests. It serves a
// small fixture set and supports fault injection through query flags.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

type organization struct {
	TaxID        string   `json:"tax_id"`
	Name         string   `json:"name"`
	VATStatus    string   `json:"vat_status"`
	BankAccounts []string `json:"bank_accounts"`
}

var fixtures = map[string]organization{
	"7010301234": {
		TaxID:        "7010301234",
		Name:         "Acme Sp. z o.o.",
		VATStatus:    "Active",
		BankAccounts: []string{"PL61109010140000071219812874"},
	},
	"5252248481": {
		TaxID:        "5252248481",
		Name:         "Widget Works S.A.",
		VATStatus:    "Active",
		BankAccounts: nil,
	},
	"1132619524": {
		TaxID:     "1132619524",
		Name:      "Dormant Holdings Sp. z o.o.",
		VATStatus: "Exempt",
		BankAccounts: []string{
			"PL27114020040000300201355387",
			"PL60102010260000042270201111",
		},
	},
}

func main() {
	addr := flag.String("addr", ":8580", "listen address")
	latency := flag.Duration("latency", 0, "artificial response latency")
	failRate := flag.Float64("fail-rate", 0, "fraction of requests answered with 503")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /registry/v1/organizations/{taxID}", func(w http.ResponseWriter, r *http.Request) {
		if *latency > 0 {
			time.Sleep(*latency)
		}
		if *failRate > 0 && rand.Float64() < *failRate {
			http.Error(w, "registry overloaded", http.StatusServiceUnavailable)
			return
		}

		taxID := r.PathValue("taxID")
		if len(taxID) != 10 || strings.Trim(taxID, "0123456789") != "" {
			http.Error(w, "malformed tax ID", http.StatusBadRequest)
			return
		}

		org, ok := fixtures[taxID]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(org); err != nil {
			log.Printf("encode response: %v", err)
		}
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("tax-registry mock listening on %s", *addr)
	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
