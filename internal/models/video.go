package models

import "time"

// TitleUnavailable is stored when the metadata service cannot provide a title.
const TitleUnavailable = "Title unavailable"

// Video is a processed video in the knowledge base.
type Video struct {
	ID         int64     `json:"id" bson:"_id"`
	Identifier string    `json:"identifier" bson:"identifier"`
	Title      string    `json:"title" bson:"title"`
	Transcript string    `json:"full_transcript" bson:"full_transcript"`
	Summary    string    `json:"summary" bson:"summary"`
	Chunks     []string  `json:"chunks" bson:"chunks"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// VideoSummary is the listing view of a stored video.
type VideoSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// TranscriptEntry is one time-coded caption line.
type TranscriptEntry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`    // seconds
	Duration float64 `json:"duration"` // seconds
}

// IngestDigest summarizes a watchlist run for the email report
type IngestDigest struct {
	Date          time.Time `json:"date"`
	Created       []*Video  `json:"created"`
	Duplicates    int       `json:"duplicates"`
	Unprocessable int       `json:"unprocessable"`
	Failed        int       `json:"failed"`
}
