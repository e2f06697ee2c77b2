// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/toeirei/walletkeeper/internal/core"
	"github.com/toeirei/walletkeeper/internal/i18n"
)

// statusFor maps a coordinator error kind onto an HTTP status and the
// message id shown to the client. Integrity failures (authentication,
// decoding, key derivation) are reported as generic internal errors.
func statusFor(kind core.Kind) (int, string) {
	switch kind {
	case core.KindInvalidInput:
		return http.StatusBadRequest, "error.invalid_input"
	case core.KindNotFound:
		return http.StatusNotFound, "error.not_found"
	case core.KindDuplicate:
		return http.StatusConflict, "error.duplicate"
	case core.KindRateLimited:
		return http.StatusTooManyRequests, "error.rate_limited"
	case core.KindTimeout:
		return http.StatusGatewayTimeout, "error.timeout"
	case core.KindStorage:
		return http.StatusServiceUnavailable, "error.storage"
	}
	return http.StatusInternalServerError, "error.internal"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status, msgID := statusFor(kind)
	publicKind := string(kind)
	if status == http.StatusInternalServerError {
		publicKind = string(core.KindInternal)
	}
	if core.Retryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	Error(w, status, publicKind, i18n.TLang(r.Header.Get("Accept-Language"), msgID))
}
