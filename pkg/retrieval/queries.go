package retrieval

// Fields shared by every relation selection.
const relationFields = `id activeFrom activeUntil factSheet { id }`

const applicationsQuery = `query AllApplications($first: Int, $after: String) {
  allFactSheets(factSheetType: Application, first: $first, after: $after) {
    totalCount
    pageInfo { hasNextPage endCursor }
    edges {
      node {
        id
        name
        level
        ... on Application {
          lifecycle { phases { phase startDate } }
          relToChild { edges { node { ` + relationFields + ` } } }
          relApplicationToITComponent { edges { node { ` + relationFields + ` obsolescenceRiskStatus } } }
        }
      }
    }
  }
}`

const itComponentsQuery = `query AllITComponents($first: Int, $after: String) {
  allFactSheets(factSheetType: ITComponent, first: $first, after: $after) {
    totalCount
    pageInfo { hasNextPage endCursor }
    edges {
      node {
        id
        name
        level
        ... on ITComponent {
          lifecycle { phases { phase startDate } }
          relToChild { edges { node { ` + relationFields + ` } } }
          relToRequires { edges { node { ` + relationFields + ` } } }
        }
      }
    }
  }
}`
