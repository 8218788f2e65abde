package usecase

// Slugify is exported for testing
var Slugify = slugify
