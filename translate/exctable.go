/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Exception-table reconstruction: the flat (start_pc, end_pc,
 * handler_pc, catch_type) rows are folded, processed in reverse
 * declaration order, into Region values. Typed rows sharing an exact
 * range and handler collapse into one region with multiple catch
 * types; finally rows (catch_type == 0) merge with any region already
 * holding their handler_pc, widening it to (min start_pc, max end_pc),
 * since javac splinters one source-level finally into several rows
 * covering adjacent ranges.
 */

package translate

import (
	"sort"

	"github.com/daviddrysdale/jnm/classfile"
)

// Catch is one typed handler attached to a Region: either a specific
// class name, or the zero value "" for a finally (catch-all) handler.
type Catch struct {
	ClassName string // "" means finally
	HandlerPC uint16
}

// Region is one reconstructed try-region: a JVM bytecode range covered by
// one or more handlers sharing that exact range.
type Region struct {
	StartPC uint16
	EndPC   uint16
	Catches []Catch
}

// BuildRegions reconstructs the nested try-region structure from a Code
// attribute's flat exception table, resolving catch_type constant-pool
// indices to class names via cp. Rows are walked in reverse (later rows
// have wider coverage than earlier ones). A finally row whose
// handler_pc already belongs to some region is absorbed into it,
// widening the region to the union of both ranges, so that afterwards
// no two finally rows share a handler_pc. Typed rows sharing the exact
// (start_pc, end_pc, handler_pc) of the previous row combine into that
// Region's Catches list instead of an identical nested region.
func BuildRegions(rows []classfile.ExceptionTableRow, cp *classfile.ConstantPool) ([]*Region, error) {
	var regions []*Region

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]

		var className string
		if row.CatchType != 0 {
			name, err := cp.ClassName(int(row.CatchType))
			if err != nil {
				return nil, err
			}
			className = name
		}
		catch := Catch{ClassName: className, HandlerPC: row.HandlerPC}

		if catch.IsFinally() {
			if reg := regionWithHandler(regions, row.HandlerPC); reg != nil {
				if row.StartPC < reg.StartPC {
					reg.StartPC = row.StartPC
				}
				if row.EndPC > reg.EndPC {
					reg.EndPC = row.EndPC
				}
				continue
			}
		} else if len(regions) > 0 {
			last := regions[len(regions)-1]
			if last.StartPC == row.StartPC && last.EndPC == row.EndPC && last.Catches[0].HandlerPC == row.HandlerPC {
				last.Catches = append(last.Catches, catch)
				continue
			}
		}

		regions = append(regions, &Region{
			StartPC: row.StartPC,
			EndPC:   row.EndPC,
			Catches: []Catch{catch},
		})
	}

	// Regions were accumulated in reverse table order and may have been
	// widened since; restore ascending start_pc order so the translator's
	// forward walk opens and closes each region at the right boundary.
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].StartPC < regions[j].StartPC
	})
	return regions, nil
}

// regionWithHandler returns the region already holding a catch for
// handlerPC, or nil.
func regionWithHandler(regions []*Region, handlerPC uint16) *Region {
	for _, reg := range regions {
		for _, c := range reg.Catches {
			if c.HandlerPC == handlerPC {
				return reg
			}
		}
	}
	return nil
}

// IsFinally reports whether c is a finally (catch-all) handler.
func (c Catch) IsFinally() bool { return c.ClassName == "" }
