// Package scoring turns retrieved resume excerpts and a job description into
// a structured match assessment using a text completion model.
//
// A Scorer fits the prompt into a token budget by dropping the least relevant
// excerpts first, asks the model for category scores, and parses the reply.
// Malformed replies get exactly one stricter retry before the Scorer gives
// up with a *core.ScoringError carrying the raw output.
//
// The overall score is never taken from the model. It is composed from the
// category scores with core.ComposeScore so identical category scores always
// produce identical results.
package scoring
