/*
 * doc.go, part of goimp.
 *
 * Copyright 2021 Raul Mera <rauldotmeraatusachdotcl>
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

//Package stf implements the simple trajectory format for goimp walkers.
//A file is a compressed text stream: an optional header of key=value lines,
//a "** N" line with the number of particles, and then frames. Each frame has
//N lines with the coordinates, as integers (the coordinate times 10^prec),
//and a terminating line "* F", where F is the frame index. Frame indexes are
//strictly increasing within a file.
//
//The compression is chosen from the last letter of the file name: 'l' for lzw,
//'z' for gzip, 'r' for raw deflate and anything else ('s', 'f') for zstd.
package stf
