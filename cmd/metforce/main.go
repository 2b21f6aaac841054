/*
Copyright © 2018 the metforce authors.
This file is part of metforce.

metforce is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

metforce is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with metforce.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command metforce is a command-line interface for converting
// meteorological model output to hydrology forcing input.
package main

import (
	"fmt"
	"os"

	"github.com/hydrogrid/metforce/metforceutil"
)

func main() {
	if err := metforceutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
