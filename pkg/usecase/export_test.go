package usecase

// Tokenize is exported for testing
var Tokenize = tokenize

// MinutesLeft is exported for testing
var MinutesLeft = minutesLeft

// MatchesQuestion is exported for testing
var MatchesQuestion = matchesQuestion
