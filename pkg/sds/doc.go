// Package sds models files in an SDS-structured waveform archive.
//
// An SDS archive stores one file per stream per day under
// ROOT/YYYY/NET/STA/CHA.Q/NET.STA.LOC.CHA.Q.YYYY.DDD, where Q is the
// quality class of the file. The package provides:
//
//   - File: the typed representation of one archived daily unit, with
//     its stream identity, quality class, nominal data date, neighbor
//     addressing, and checksum computation.
//   - Quality: the closed set of quality classes and the one-directional
//     transition raw -> pruned.
//   - Collector: archive discovery with wildcard, date, and
//     modification-time selection.
//
// File values are constructed fresh for every run; nothing in this
// package caches filesystem or remote state between runs.
package sds
