package repository

import "github.com/loomtale/engine/pkg/ferrors"

// ErrNoCurrent is returned by ChapterRepository.GetCurrent when no record
// is CURRENT for the requested chapter.
var ErrNoCurrent = ferrors.New(ferrors.KindNotFound, "no current record for chapter")
