/*
 * doc.go, part of goimp.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package imp is the main package of the goimp library. It provides the model
that integrative structure sampling works on, and the scoring of that model.


	**goimp Capabilities**

    A Model stores the attributes of its particles (floats, ints, strings,
	references to other particles) in typed columns, with optional
	derivatives for the float attributes.

    Capabilities (XYZ, XYZR, Mass, Scale) are checked views on a particle,
	not types that a particle must have. SetupXYZ and friends add the
	attributes, XYZOf and friends check that they are there.

    ModelObjects (restraints, score states, containers) have immutable
	descriptors listing what they read and write. The Model keeps them
	in a dependency graph, and orders the score states that a scoring
	function needs before evaluating.

    ScoringFunctions add up weighted restraints, with a "good score"
	mode that stops once the total is known to be above a maximum, and
	report the score of each restraint. IncrementalScoringFunction only
	re-evaluates the restraints touched by the particles that moved.

    All the randomness and logging of a sampling goes through a
	SamplingContext, so runs are reproducible from a seed.

The Monte Carlo machinery is in the mc package, the restraints
and containers in core, and the replica exchange in rex.

Functions that get bad arguments from the programmer panic with a
PanicMsg. Errors with the data, or from I/O, are returned.
*/
package imp
