package http

import (
	"fmt"
	"net/http"
	"strconv"

	"frodoestate/internal/market"
	"frodoestate/internal/nav"
)

type TransactionsHandler struct {
	*Shell
	Store market.Store
}

type TxContent struct {
	Rows    []market.Transaction
	Page    int
	Size    int
	PrevURL string
	NextURL string
}

func (h *TransactionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	ctl := controller(h.Shell, rc, "transactions", h.Store.Transactions, "Failed to fetch transactions")
	defer ctl.Unmount()
	load(r, ctl)

	// pagination (defaults)
	pagenb := parseIntDefault(r.URL.Query().Get("page"), 1)
	if pagenb < 1 {
		pagenb = 1
	}
	size := parseIntDefault(r.URL.Query().Get("size"), 10)
	if size < 1 {
		size = 10
	}
	if size > 200 {
		size = 200
	}

	all := ctl.Records()
	content := TxContent{Page: pagenb, Size: size}
	// pages past the end stay empty; the offset is only computed once
	// it is known to fit in len(all)
	if pagenb-1 < (len(all)+size-1)/size {
		start := (pagenb - 1) * size
		end := min(start+size, len(all))
		content.Rows = all[start:end]
		if end < len(all) {
			content.NextURL = pageURL(pagenb+1, size)
		}
	}
	if pagenb > 1 {
		content.PrevURL = pageURL(pagenb-1, size)
	}
	render(h.Shell, rc, pageOpts{Name: "transactions", Title: "Transaction History"}, content)
}

func pageURL(page, size int) string {
	return fmt.Sprintf("%s?page=%d&size=%d", nav.PathTransactionHistory, page, size)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// BorrowingHandler lists the loans recorded against vault allocations.
type BorrowingHandler struct {
	*Shell
	Store market.Store
}

type borrowingContent struct {
	Loans []market.Loan
}

func (h *BorrowingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := h.begin(w, r)
	ctl := controller(h.Shell, rc, "borrowing", h.Store.Loans, "Failed to fetch borrowing history")
	defer ctl.Unmount()
	load(r, ctl)
	render(h.Shell, rc, pageOpts{Name: "borrowing", Title: "Borrowing History"}, borrowingContent{
		Loans: ctl.Records(),
	})
}
