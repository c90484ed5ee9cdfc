// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/validation"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid record")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// keysegment marks fields that become part of a storage key.
		_ = validate.RegisterValidation("keysegment", func(fl validator.FieldLevel) bool {
			return validation.ValidateSegment(fl.Field().String()) == nil
		})
	})
	return validate
}

// Validate checks a record's struct tags before it is written.
//
// Description:
//
//	Runs go-playground/validator over v. DocumentCollection run keys are
//	sorted and de-duplicated first so stored sets stay canonical.
//
// Inputs:
//
//	v - Pointer to a model record.
//
// Outputs:
//
//	error - Nil if valid; otherwise wraps ErrInvalid and lists each
//	failing field.
func Validate(v any) error {
	if c, ok := v.(*DocumentCollection); ok {
		c.normalizeRunKeys()
	}

	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
