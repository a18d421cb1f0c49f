// Package textutil provides the title normalisation shared by filename parsing
// and catalog matching.
//
// SimplifiedName folds a title to a comparison key: accents removed, lower
// case, and only ASCII letters and digits kept. CleanTitle turns release-style
// file names ("Some.Movie_Name") into readable titles.
package textutil
