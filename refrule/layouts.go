package refrule

// childLayouts[sig] lists the children of a cell refined with signature sig,
// each child given by four vertex slots (0..3 parent vertices, 4+k midpoint of edge k).
//
// A face with one marked edge is bisected towards its opposite vertex. A face
// with two marked edges is bisected along the lower edge first. A face with
// all three edges marked is cut into four similar triangles. The pattern of a
// face depends only on its own marks, so neighbours sharing the face agree.
// Row 63 is red refinement: four corner children and the inner octahedron
// cut along the diagonal between slots 4 and 9, see octahedronDiagonals.
var childLayouts = [NumRules][][4]Slot{
	0: {{0, 1, 2, 3}},
	1: {{0, 4, 2, 3}, {4, 1, 2, 3}},
	2: {{0, 1, 5, 3}, {5, 1, 2, 3}},
	3: {{0, 4, 5, 3}, {5, 4, 2, 3}, {4, 1, 2, 3}},
	4: {{0, 1, 6, 3}, {0, 6, 2, 3}},
	5: {{0, 4, 2, 3}, {4, 1, 6, 3}, {4, 6, 2, 3}},
	6: {{0, 1, 5, 3}, {5, 1, 6, 3}, {5, 6, 2, 3}},
	7: {{0, 3, 4, 5}, {1, 3, 4, 6}, {2, 3, 5, 6}, {3, 4, 5, 6}},
	8: {{0, 1, 2, 7}, {7, 1, 2, 3}},
	9: {{0, 4, 2, 7}, {7, 4, 2, 3}, {4, 1, 2, 3}},
	10: {{0, 1, 5, 7}, {7, 1, 5, 3}, {5, 1, 2, 3}},
	11: {{0, 4, 5, 7}, {7, 4, 5, 3}, {5, 4, 2, 3}, {4, 1, 2, 3}},
	12: {{0, 1, 6, 7}, {7, 1, 6, 3}, {0, 6, 2, 7}, {7, 6, 2, 3}},
	13: {{0, 4, 2, 7}, {7, 4, 2, 3}, {4, 1, 6, 3}, {4, 6, 2, 3}},
	14: {{0, 1, 5, 7}, {7, 1, 5, 3}, {5, 1, 6, 3}, {5, 6, 2, 3}},
	15: {{0, 4, 5, 7}, {1, 3, 4, 6}, {2, 3, 5, 6}, {3, 4, 5, 6}, {3, 4, 5, 7}},
	16: {{0, 1, 2, 8}, {0, 8, 2, 3}},
	17: {{0, 4, 2, 3}, {4, 1, 2, 8}, {4, 8, 2, 3}},
	18: {{0, 1, 5, 8}, {0, 8, 5, 3}, {5, 1, 2, 8}, {5, 8, 2, 3}},
	19: {{0, 4, 5, 3}, {5, 4, 2, 3}, {4, 1, 2, 8}, {4, 8, 2, 3}},
	20: {{0, 1, 6, 8}, {0, 8, 6, 3}, {0, 6, 2, 3}},
	21: {{0, 4, 2, 3}, {4, 1, 6, 8}, {4, 8, 6, 3}, {4, 6, 2, 3}},
	22: {{0, 1, 5, 8}, {0, 8, 5, 3}, {5, 1, 6, 8}, {5, 8, 6, 3}, {5, 6, 2, 3}},
	23: {{0, 3, 4, 5}, {1, 4, 6, 8}, {2, 3, 5, 6}, {3, 4, 5, 6}, {3, 4, 6, 8}},
	24: {{0, 1, 2, 7}, {7, 1, 2, 8}, {7, 8, 2, 3}},
	25: {{0, 2, 4, 7}, {1, 2, 4, 8}, {2, 3, 7, 8}, {2, 4, 7, 8}},
	26: {{0, 1, 5, 7}, {7, 1, 5, 8}, {7, 8, 5, 3}, {5, 1, 2, 8}, {5, 8, 2, 3}},
	27: {{0, 4, 5, 7}, {1, 2, 4, 8}, {2, 3, 5, 8}, {2, 4, 5, 8}, {3, 5, 7, 8}, {4, 5, 7, 8}},
	28: {{0, 1, 6, 7}, {7, 1, 6, 8}, {7, 8, 6, 3}, {0, 6, 2, 7}, {7, 6, 2, 3}},
	29: {{0, 2, 4, 7}, {1, 4, 6, 8}, {2, 3, 6, 7}, {2, 4, 6, 7}, {3, 6, 7, 8}, {4, 6, 7, 8}},
	30: {{0, 1, 5, 7}, {7, 1, 5, 8}, {7, 8, 5, 3}, {5, 1, 6, 8}, {5, 8, 6, 3}, {5, 6, 2, 3}},
	31: {{0, 4, 5, 7}, {1, 4, 6, 8}, {2, 3, 5, 6}, {3, 5, 6, 7}, {3, 6, 7, 8}, {4, 5, 6, 7}, {4, 6, 7, 8}},
	32: {{0, 1, 2, 9}, {0, 1, 9, 3}},
	33: {{0, 4, 2, 9}, {0, 4, 9, 3}, {4, 1, 2, 9}, {4, 1, 9, 3}},
	34: {{0, 1, 5, 3}, {5, 1, 2, 9}, {5, 1, 9, 3}},
	35: {{0, 4, 5, 3}, {5, 4, 2, 9}, {5, 4, 9, 3}, {4, 1, 2, 9}, {4, 1, 9, 3}},
	36: {{0, 1, 6, 3}, {0, 6, 2, 9}, {0, 6, 9, 3}},
	37: {{0, 4, 2, 9}, {0, 4, 9, 3}, {4, 1, 6, 3}, {4, 6, 2, 9}, {4, 6, 9, 3}},
	38: {{0, 1, 5, 3}, {5, 1, 6, 3}, {5, 6, 2, 9}, {5, 6, 9, 3}},
	39: {{0, 3, 4, 5}, {1, 3, 4, 6}, {2, 5, 6, 9}, {3, 4, 5, 6}, {3, 5, 6, 9}},
	40: {{0, 1, 2, 7}, {7, 1, 2, 9}, {7, 1, 9, 3}},
	41: {{0, 4, 2, 7}, {7, 4, 2, 9}, {7, 4, 9, 3}, {4, 1, 2, 9}, {4, 1, 9, 3}},
	42: {{0, 1, 5, 7}, {1, 2, 5, 9}, {1, 3, 7, 9}, {1, 5, 7, 9}},
	43: {{0, 4, 5, 7}, {1, 2, 4, 9}, {1, 3, 4, 9}, {2, 4, 5, 9}, {3, 4, 7, 9}, {4, 5, 7, 9}},
	44: {{0, 1, 6, 7}, {7, 1, 6, 3}, {0, 6, 2, 7}, {7, 6, 2, 9}, {7, 6, 9, 3}},
	45: {{0, 4, 2, 7}, {7, 4, 2, 9}, {7, 4, 9, 3}, {4, 1, 6, 3}, {4, 6, 2, 9}, {4, 6, 9, 3}},
	46: {{0, 1, 5, 7}, {1, 3, 6, 7}, {1, 5, 6, 7}, {2, 5, 6, 9}, {3, 6, 7, 9}, {5, 6, 7, 9}},
	47: {{0, 4, 5, 7}, {1, 3, 4, 6}, {2, 5, 6, 9}, {3, 4, 6, 7}, {3, 6, 7, 9}, {4, 5, 6, 7}, {5, 6, 7, 9}},
	48: {{0, 1, 2, 8}, {0, 8, 2, 9}, {0, 8, 9, 3}},
	49: {{0, 4, 2, 9}, {0, 4, 9, 3}, {4, 1, 2, 8}, {4, 8, 2, 9}, {4, 8, 9, 3}},
	50: {{0, 1, 5, 8}, {0, 8, 5, 3}, {5, 1, 2, 8}, {5, 8, 2, 9}, {5, 8, 9, 3}},
	51: {{0, 4, 5, 3}, {5, 4, 2, 9}, {5, 4, 9, 3}, {4, 1, 2, 8}, {4, 8, 2, 9}, {4, 8, 9, 3}},
	52: {{0, 1, 6, 8}, {0, 2, 6, 9}, {0, 3, 8, 9}, {0, 6, 8, 9}},
	53: {{0, 2, 4, 9}, {0, 3, 4, 9}, {1, 4, 6, 8}, {2, 4, 6, 9}, {3, 4, 8, 9}, {4, 6, 8, 9}},
	54: {{0, 1, 5, 8}, {0, 3, 5, 8}, {1, 5, 6, 8}, {2, 5, 6, 9}, {3, 5, 8, 9}, {5, 6, 8, 9}},
	55: {{0, 3, 4, 5}, {1, 4, 6, 8}, {2, 5, 6, 9}, {3, 4, 5, 8}, {3, 5, 8, 9}, {4, 5, 6, 8}, {5, 6, 8, 9}},
	56: {{0, 1, 2, 7}, {7, 1, 2, 8}, {7, 8, 2, 9}, {7, 8, 9, 3}},
	57: {{0, 2, 4, 7}, {1, 2, 4, 8}, {2, 4, 7, 8}, {2, 7, 8, 9}, {3, 7, 8, 9}},
	58: {{0, 1, 5, 7}, {1, 2, 5, 8}, {1, 5, 7, 8}, {2, 5, 8, 9}, {3, 7, 8, 9}, {5, 7, 8, 9}},
	59: {{0, 4, 5, 7}, {1, 2, 4, 8}, {2, 4, 5, 8}, {2, 5, 8, 9}, {3, 7, 8, 9}, {4, 5, 7, 8}, {5, 7, 8, 9}},
	60: {{0, 1, 6, 7}, {0, 2, 6, 7}, {1, 6, 7, 8}, {2, 6, 7, 9}, {3, 7, 8, 9}, {6, 7, 8, 9}},
	61: {{0, 2, 4, 7}, {1, 4, 6, 8}, {2, 4, 6, 7}, {2, 6, 7, 9}, {3, 7, 8, 9}, {4, 6, 7, 8}, {6, 7, 8, 9}},
	62: {{0, 1, 5, 7}, {1, 5, 6, 7}, {1, 6, 7, 8}, {2, 5, 6, 9}, {3, 7, 8, 9}, {5, 6, 7, 9}, {6, 7, 8, 9}},
	63: {{0, 4, 5, 7}, {4, 1, 6, 8}, {5, 6, 2, 9}, {7, 8, 9, 3}, {4, 9, 5, 6}, {4, 9, 6, 8}, {4, 9, 8, 7}, {4, 9, 7, 5}},
}
