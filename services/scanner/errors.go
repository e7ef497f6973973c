// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scanner

import "errors"

// Sentinel errors returned by the scanning engine. Callers should test with
// errors.Is because the engine wraps these with file context.
var (
	// ErrUnknownKind indicates an artifact kind with no registered scanner.
	ErrUnknownKind = errors.New("unknown artifact kind")

	// ErrUnknownRule indicates a rule id that is not in the catalog.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrInvalidInput indicates a malformed argument such as a nil context.
	ErrInvalidInput = errors.New("invalid input")
)

// Parse failures inside the Python dialect are not Go errors: they surface
// as a single python-parse-error violation so the run can continue with the
// remaining files.
