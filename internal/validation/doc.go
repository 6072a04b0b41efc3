// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

// Package validation wraps go-playground/validator v10 with a singleton instance,
// the custom tags used by subscriber requests and configuration, and readable
// error messages.
//
//	type imageRequest struct {
//	    Hash string `validate:"required,digest"`
//	    Ext  string `validate:"omitempty,extension"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    return err
//	}
package validation
