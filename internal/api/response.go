// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, Response{Success: statusCode < 400, Data: data})
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, statusCode int, kind, msg string) {
	writeJSON(w, statusCode, Response{Success: false, Error: msg, Kind: kind})
}
