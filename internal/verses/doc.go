// Package verses holds the reference catalog devotional days draw from and
// the selector that picks a reference not yet in the used-reference ledger.
//
// References are identified by a stable key of the form BOOK.CHAPTER.VERSE
// using USFM book codes ("JHN.3.16"); the same key is what the ledger stores
// and what the text source is queried with.
package verses
