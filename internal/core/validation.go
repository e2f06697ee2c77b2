// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxUserIDLength matches the width of the indexed user_id column.
const MaxUserIDLength = 191

var (
	validate = validator.New()

	// ErrInvalidUserID is wrapped for user ids that are empty, too long or
	// not printable ASCII.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrEmptyTransaction is wrapped when there is nothing to sign.
	ErrEmptyTransaction = errors.New("empty transaction")
)

var userIDRules = fmt.Sprintf("required,max=%d,printascii", MaxUserIDLength)

// ValidateUserID checks a user id without touching any collaborator.
func ValidateUserID(userID string) error {
	return validateUserID(userID)
}

func validateUserID(userID string) error {
	if err := validate.Var(userID, userIDRules); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: failed %q rule", ErrInvalidUserID, verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidUserID, err)
	}
	if strings.TrimSpace(userID) != userID {
		return fmt.Errorf("%w: leading or trailing whitespace", ErrInvalidUserID)
	}
	return nil
}

func validateTransaction(tx string) error {
	if strings.TrimSpace(tx) == "" {
		return ErrEmptyTransaction
	}
	return nil
}
