// Package matching scores destination search results against a source track
// and picks the best one.
//
// # Normalization
//
// Strings are compared after [Normalize]: compatibility decomposition, removal
// of combining marks and lower-casing. Every rune that is not a letter, digit
// or space is dropped, and runs of whitespace collapse to one space. "Beyoncé"
// and "beyonce", "AC/DC" and "ACDC", or "Don't" and "Dont" compare equal.
//
// # Scoring
//
// A candidate gets a title score, an artist score and a duration score, each
// in [0, 1], combined as a weighted average. A candidate whose duration differs
// from the source by more than the tolerance is rejected outright, whatever its
// text similarity. When either duration is unknown the duration score is 0.5.
//
// An identical title and artist with no duration difference scores exactly 1.
// Titles that only agree once "(Live)", "[Remastered]" or " - 2011 Mix" style
// decorations are removed score at most 0.9 on the title, so a decorated
// result never ties the undecorated one.
//
// # Selection
//
// [Matcher.Best] returns the highest scoring candidate at or above the
// acceptance threshold. Ties keep the candidate the destination ranked first.
package matching
